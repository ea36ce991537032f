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
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/fund-monitor/dataframe"
)

// PriceMatrix is a validated table of daily close prices. Row 0 is the most
// recent trading date. Zero prices are treated as missing and back filled from
// the chronologically earlier row; cells with no earlier data remain NaN.
//
// A PriceMatrix is immutable once constructed and safe to share between
// goroutines.
type PriceMatrix struct {
	frame *dataframe.DataFrame
	index map[string]int
}

// NewPriceMatrix validates the supplied prices and returns a PriceMatrix. vals
// is column major (vals[instrument][row]) and rows may be in any date order.
func NewPriceMatrix(dates []time.Time, instruments []string, vals [][]float64) (*PriceMatrix, error) {
	df, err := dataframe.New(dates, instruments, vals)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err.Error())
	}
	return FromDataFrame(df)
}

// FromDataFrame validates a dataframe of prices and returns a PriceMatrix. The
// dataframe is copied; later changes to df do not affect the matrix.
func FromDataFrame(df *dataframe.DataFrame) (*PriceMatrix, error) {
	if len(df.ColNames) != len(df.Vals) {
		return nil, fmt.Errorf("%w: %d instruments, %d columns", ErrMalformedInput, len(df.ColNames), len(df.Vals))
	}

	index := make(map[string]int, len(df.ColNames))
	for colIdx, name := range df.ColNames {
		if name == "" {
			return nil, fmt.Errorf("%w: %w at column %d", ErrMalformedInput, ErrEmptyInstrument, colIdx)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%w: %w: %q", ErrMalformedInput, ErrDuplicateInstrument, name)
		}
		index[name] = colIdx

		if len(df.Vals[colIdx]) != len(df.Dates) {
			return nil, fmt.Errorf("%w: instrument %q has %d prices for %d dates", ErrMalformedInput, name, len(df.Vals[colIdx]), len(df.Dates))
		}

		for rowIdx, v := range df.Vals[colIdx] {
			switch {
			case math.IsInf(v, 0):
				return nil, fmt.Errorf("%w: %w: %q on %s", ErrMalformedInput, ErrInfinitePrice, name, df.Dates[rowIdx].Format("2006-01-02"))
			case v < 0:
				return nil, fmt.Errorf("%w: %w: %q on %s", ErrMalformedInput, ErrNegativePrice, name, df.Dates[rowIdx].Format("2006-01-02"))
			}
		}
	}

	sorted := df.Sort()
	for idx := 1; idx < sorted.Len(); idx++ {
		if sorted.Dates[idx].Equal(sorted.Dates[idx-1]) {
			return nil, fmt.Errorf("%w: %w: %s", ErrMalformedInput, ErrDuplicateDate, sorted.Dates[idx].Format("2006-01-02"))
		}
	}

	newestFirst := sorted.Reverse().ReplaceValue(0, math.NaN()).BackFill()

	return &PriceMatrix{
		frame: newestFirst,
		index: index,
	}, nil
}

// Len returns the number of trading dates in the matrix
func (pm *PriceMatrix) Len() int {
	return pm.frame.Len()
}

// Instruments returns the instrument identifiers in column order
func (pm *PriceMatrix) Instruments() []string {
	res := make([]string, len(pm.frame.ColNames))
	copy(res, pm.frame.ColNames)
	return res
}

// Has returns true if the instrument is a column of the matrix
func (pm *PriceMatrix) Has(instrument string) bool {
	_, ok := pm.index[instrument]
	return ok
}

// Date returns the trading date of the given row; row 0 is the most recent
func (pm *PriceMatrix) Date(row int) time.Time {
	return pm.frame.Dates[row]
}

// Dates returns all trading dates, most recent first
func (pm *PriceMatrix) Dates() []time.Time {
	res := make([]time.Time, len(pm.frame.Dates))
	copy(res, pm.frame.Dates)
	return res
}

// Price returns the price of an instrument at a row. The boolean is false when
// the instrument is unknown, the row is out of range or the price is missing.
func (pm *PriceMatrix) Price(row int, instrument string) (float64, bool) {
	colIdx, ok := pm.index[instrument]
	if !ok || row < 0 || row >= pm.Len() {
		return math.NaN(), false
	}
	v := pm.frame.Vals[colIdx][row]
	return v, !math.IsNaN(v)
}

// Column returns a copy of the instrument's prices, most recent first
func (pm *PriceMatrix) Column(instrument string) ([]float64, bool) {
	colIdx, ok := pm.index[instrument]
	if !ok {
		return nil, false
	}
	res := make([]float64, pm.Len())
	copy(res, pm.frame.Vals[colIdx])
	return res, true
}

// Select returns a matrix restricted to the requested instruments. Unknown
// instruments are dropped and returned in missing.
func (pm *PriceMatrix) Select(instruments ...string) (selected *PriceMatrix, missing []string) {
	df, missing := pm.frame.Select(instruments...)
	df = df.Copy()
	index := make(map[string]int, len(df.ColNames))
	for idx, name := range df.ColNames {
		index[name] = idx
	}
	return &PriceMatrix{frame: df, index: index}, missing
}

// Ascending returns a copy of the cleaned prices as a dataframe sorted by
// ascending date
func (pm *PriceMatrix) Ascending() *dataframe.DataFrame {
	return pm.frame.Reverse()
}

// Frame returns a copy of the cleaned prices, most recent first
func (pm *PriceMatrix) Frame() *dataframe.DataFrame {
	return pm.frame.Copy()
}

// Table renders the matrix, most recent first, as an ASCII table
func (pm *PriceMatrix) Table() string {
	return pm.frame.Table()
}
