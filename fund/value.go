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

package fund

import (
	"math"
	"time"
)

// ValueColumn is the column name of the share-weighted fund value series
const ValueColumn = "FUND"

// ValueSeries holds the share-weighted fund value per trading date, most
// recent first. A row is NaN when any priced holding is missing that day.
type ValueSeries struct {
	Dates  []time.Time
	Values []float64
}

// Value computes sum(price * shares) per row over the holdings present in pm.
// Holdings absent from pm are ignored.
func Value(pm *PriceMatrix, holdings Holdings) *ValueSeries {
	weighted := pm.frame.WeightedSum(holdings, ValueColumn)
	return &ValueSeries{
		Dates:  weighted.Dates,
		Values: weighted.Vals[0],
	}
}

// Len returns the number of rows in the series
func (vs *ValueSeries) Len() int {
	return len(vs.Values)
}

// Ascending returns copies of the dates and values in chronological order
func (vs *ValueSeries) Ascending() ([]time.Time, []float64) {
	n := len(vs.Values)
	dates := make([]time.Time, n)
	values := make([]float64, n)
	for idx := range vs.Values {
		dates[n-1-idx] = vs.Dates[idx]
		values[n-1-idx] = vs.Values[idx]
	}
	return dates, values
}

// DailyReturn returns (v[0] - v[1]) / v[1]; NaN when either value is missing
func (vs *ValueSeries) DailyReturn() float64 {
	if len(vs.Values) < 2 {
		return math.NaN()
	}
	prior := vs.Values[1]
	if math.IsNaN(prior) || prior == 0 {
		return math.NaN()
	}
	return (vs.Values[0] - prior) / prior
}
