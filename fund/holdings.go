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
	"sort"
)

// DefaultSharesColumn selects the shares figure from a holdings table: the
// second numeric column when more than one exists, otherwise the first.
const DefaultSharesColumn = ""

// Holdings maps an instrument identifier to a non-negative share count
type Holdings map[string]float64

// HoldingsTable is the raw holdings sheet: one row per instrument and one or
// more numeric columns (e.g. prior shares, current shares).
type HoldingsTable struct {
	Instruments []string
	Columns     []string
	Vals        [][]float64 // column major, Vals[column][instrument]
}

// NewHoldings validates share counts and returns a Holdings
func NewHoldings(shares map[string]float64) (Holdings, error) {
	h := make(Holdings, len(shares))
	for instrument, count := range shares {
		if instrument == "" {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, ErrEmptyInstrument)
		}
		if math.IsNaN(count) || math.IsInf(count, 0) || count < 0 {
			return nil, fmt.Errorf("%w: %w: %q=%v", ErrMalformedInput, ErrInvalidShares, instrument, count)
		}
		h[instrument] = count
	}
	return h, nil
}

// Holdings extracts share counts from the table. column names the shares
// column; DefaultSharesColumn applies the default policy. Instruments with a
// missing (NaN) share count are excluded.
func (t *HoldingsTable) Holdings(column string) (Holdings, error) {
	if len(t.Columns) != len(t.Vals) {
		return nil, fmt.Errorf("%w: %d column names, %d columns", ErrMalformedInput, len(t.Columns), len(t.Vals))
	}
	if len(t.Columns) == 0 {
		return Holdings{}, nil
	}

	colIdx := -1
	if column == DefaultSharesColumn {
		colIdx = 0
		if len(t.Columns) > 1 {
			colIdx = 1
		}
	} else {
		for idx, name := range t.Columns {
			if name == column {
				colIdx = idx
				break
			}
		}
		if colIdx == -1 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
		}
	}

	col := t.Vals[colIdx]
	if len(col) != len(t.Instruments) {
		return nil, fmt.Errorf("%w: column %q has %d values for %d instruments", ErrMalformedInput, t.Columns[colIdx], len(col), len(t.Instruments))
	}

	shares := make(map[string]float64, len(col))
	for idx, instrument := range t.Instruments {
		if math.IsNaN(col[idx]) {
			continue
		}
		if _, ok := shares[instrument]; ok {
			return nil, fmt.Errorf("%w: %w: %q", ErrMalformedInput, ErrDuplicateInstrument, instrument)
		}
		shares[instrument] = col[idx]
	}

	return NewHoldings(shares)
}

// Instruments returns the held instruments sorted by identifier
func (h Holdings) Instruments() []string {
	res := make([]string, 0, len(h))
	for k := range h {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Coverage splits the holdings into instruments priced by pm and instruments
// that are missing from it. priced follows the matrix column order, missing is
// sorted by identifier.
func (h Holdings) Coverage(pm *PriceMatrix) (priced []string, missing []string) {
	for _, instrument := range pm.Instruments() {
		if _, ok := h[instrument]; ok {
			priced = append(priced, instrument)
		}
	}
	for _, instrument := range h.Instruments() {
		if !pm.Has(instrument) {
			missing = append(missing, instrument)
		}
	}
	return priced, missing
}
