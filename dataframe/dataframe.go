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
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// New validates the shape of the supplied data and returns a dataframe. Column
// names and dates must be unique and every column must have one value per date.
func New(dates []time.Time, colNames []string, vals [][]float64) (*DataFrame, error) {
	if len(colNames) != len(vals) {
		return nil, fmt.Errorf("%w: %d names, %d columns", ErrColumnCount, len(colNames), len(vals))
	}

	seenCols := make(map[string]bool, len(colNames))
	for idx, name := range colNames {
		if seenCols[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seenCols[name] = true
		if len(vals[idx]) != len(dates) {
			return nil, fmt.Errorf("%w: column %q has %d values for %d dates", ErrColumnLength, name, len(vals[idx]), len(dates))
		}
	}

	seenDates := make(map[int64]bool, len(dates))
	for _, dt := range dates {
		if seenDates[dt.UnixNano()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, dt.Format("2006-01-02"))
		}
		seenDates[dt.UnixNano()] = true
	}

	return &DataFrame{
		Dates:    dates,
		ColNames: colNames,
		Vals:     vals,
	}, nil
}

// BackFill replaces each NaN with the value in the following row, walking from
// the bottom of the frame to the top so runs of NaN take the first valid value
// below them. NaNs with no valid value below them are left in place. Returns a
// new dataframe.
func (df *DataFrame) BackFill() *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		next := math.NaN()
		for rowIdx := len(col) - 1; rowIdx >= 0; rowIdx-- {
			if math.IsNaN(col[rowIdx]) {
				col[rowIdx] = next
			} else {
				next = col[rowIdx]
			}
		}
	}
	return df
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// ColIndex returns the index of the specified column or -1 if it doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// Column returns the values of the named column and whether it exists
func (df *DataFrame) Column(colName string) ([]float64, bool) {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil, false
	}
	return df.Vals[idx], true
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Drop removes rows that contain the value `val` in any column
func (df *DataFrame) Drop(val float64) *DataFrame {
	isNA := math.IsNaN(val)
	newVals := make([][]float64, len(df.Vals))
	newDates := make([]time.Time, 0, len(df.Dates))

	for idx, dt := range df.Dates {
		keep := true
		for _, col := range df.Vals {
			rowVal := col[idx]
			keep = keep && !(rowVal == val || (isNA && math.IsNaN(rowVal)))
			if !keep {
				break
			}
		}

		if keep {
			newDates = append(newDates, dt)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[idx])
			}
		}
	}

	df.Vals = newVals
	df.Dates = newDates
	return df
}

// DropEmptyTail removes trailing rows where every column is NaN
func (df *DataFrame) DropEmptyTail() *DataFrame {
	end := len(df.Dates)
	for end > 0 {
		empty := true
		for _, col := range df.Vals {
			if !math.IsNaN(col[end-1]) {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		end--
	}

	df.Dates = df.Dates[:end]
	for colIdx := range df.Vals {
		df.Vals[colIdx] = df.Vals[colIdx][:end]
	}
	return df
}

// End returns the last date in the DataFrame
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// Insert a new column to the end of the dataframe
func (df *DataFrame) Insert(name string, col []float64) *DataFrame {
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return df
}

// IsSorted returns true if dates are strictly increasing
func (df *DataFrame) IsSorted() bool {
	for idx := 1; idx < len(df.Dates); idx++ {
		if !df.Dates[idx].After(df.Dates[idx-1]) {
			return false
		}
	}
	return true
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// ReplaceValue replaces every occurrence of `old` with `replacement` and returns a new dataframe
func (df *DataFrame) ReplaceValue(old, replacement float64) *DataFrame {
	df = df.Copy()
	isNA := math.IsNaN(old)
	for _, col := range df.Vals {
		for rowIdx, v := range col {
			if v == old || (isNA && math.IsNaN(v)) {
				col[rowIdx] = replacement
			}
		}
	}
	return df
}

// Reverse flips the row order and returns a new dataframe
func (df *DataFrame) Reverse() *DataFrame {
	df = df.Copy()
	n := len(df.Dates)
	for ii := 0; ii < n/2; ii++ {
		jj := n - 1 - ii
		df.Dates[ii], df.Dates[jj] = df.Dates[jj], df.Dates[ii]
		for _, col := range df.Vals {
			col[ii], col[jj] = col[jj], col[ii]
		}
	}
	return df
}

// Row returns a map of column name to value for the given row
func (df *DataFrame) Row(rowIdx int) map[string]float64 {
	res := make(map[string]float64, len(df.ColNames))
	for colIdx, name := range df.ColNames {
		res[name] = df.Vals[colIdx][rowIdx]
	}
	return res
}

// Select returns a new dataframe with only the requested columns, in the order
// requested. Columns not in df are reported in missing.
func (df *DataFrame) Select(columns ...string) (selected *DataFrame, missing []string) {
	selected = &DataFrame{
		Dates:    df.Dates,
		ColNames: make([]string, 0, len(columns)),
		Vals:     make([][]float64, 0, len(columns)),
	}

	for _, name := range columns {
		idx := df.ColIndex(name)
		if idx == -1 {
			missing = append(missing, name)
			continue
		}
		selected.ColNames = append(selected.ColNames, name)
		selected.Vals = append(selected.Vals, df.Vals[idx])
	}

	return selected, missing
}

// Sort orders rows by ascending date and returns a new dataframe
func (df *DataFrame) Sort() *DataFrame {
	order := make([]int, len(df.Dates))
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return df.Dates[order[i]].Before(df.Dates[order[j]])
	})

	sorted := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(sorted.ColNames, df.ColNames)

	for newIdx, oldIdx := range order {
		sorted.Dates[newIdx] = df.Dates[oldIdx]
	}

	for colIdx, col := range df.Vals {
		sorted.Vals[colIdx] = make([]float64, len(col))
		for newIdx, oldIdx := range order {
			sorted.Vals[colIdx][newIdx] = col[oldIdx]
		}
	}

	return sorted
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// Table prints an ASCII formatted table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>"
	}

	tableCols := append([]string{"Date"}, df.ColNames...)

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for idx, dt := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, dt.Format("2006-01-02"))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

// Trim the dataframe to the specified date range (inclusive). The dataframe
// must be sorted in ascending order.
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    df.Dates,
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(df2.Vals, df.Vals)

	if end.Before(begin) || df.Len() == 0 || end.Before(df.Start()) || begin.After(df.End()) {
		df2.Dates = []time.Time{}
		for colIdx := range df2.Vals {
			df2.Vals[colIdx] = []float64{}
		}
		return df2
	}

	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(end)
	})

	df2.Dates = df.Dates[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}
