// Copyright 2021-2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataframe

import (
	"math"
	"sort"
	"time"
)

// Map holds named dataframes, e.g. a fund NAV sheet and a reference index sheet
type Map map[string]*DataFrame

// Align finds the maximum start and minimum end across all dataframes and trims
// them to match. Dataframes must be sorted in ascending order.
func (dfMap Map) Align() Map {
	var start time.Time
	var end time.Time

	first := true
	for _, df := range dfMap {
		if df.Len() == 0 {
			continue
		}
		if first {
			start = df.Start()
			end = df.End()
			first = false
			continue
		}
		if df.Start().After(start) {
			start = df.Start()
		}
		if df.End().Before(end) {
			end = df.End()
		}
	}

	dfMapTrimmed := make(Map, len(dfMap))
	for k, df := range dfMap {
		dfMapTrimmed[k] = df.Trim(start, end)
	}

	return dfMapTrimmed
}

// DataFrame joins every dataframe in the map into a single dataframe on the
// union of their dates (ascending). When two frames share a column name the
// later key in sorted order wins. Cells with no value for a date are NaN.
func (dfMap Map) DataFrame() *DataFrame {
	keys := make([]string, 0, len(dfMap))
	for k := range dfMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dateSet := make(map[int64]time.Time)
	for _, k := range keys {
		for _, dt := range dfMap[k].Dates {
			dateSet[dt.UnixNano()] = dt
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, dt := range dateSet {
		dates = append(dates, dt)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rowIdx := make(map[int64]int, len(dates))
	for idx, dt := range dates {
		rowIdx[dt.UnixNano()] = idx
	}

	res := &DataFrame{Dates: dates}
	for _, k := range keys {
		df := dfMap[k]
		for colIdx, name := range df.ColNames {
			col := make([]float64, len(dates))
			for idx := range col {
				col[idx] = math.NaN()
			}
			for srcIdx, dt := range df.Dates {
				col[rowIdx[dt.UnixNano()]] = df.Vals[colIdx][srcIdx]
			}

			if existing := res.ColIndex(name); existing != -1 {
				res.Vals[existing] = col
			} else {
				res.Insert(name, col)
			}
		}
	}

	return res
}
