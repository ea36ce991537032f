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

package returns

import (
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/fund-monitor/fund"
)

// Anchor is a calendar date used as the base of a cumulative return series
type Anchor struct {
	Label string    `json:"label" toml:"label"`
	Date  time.Time `json:"date" toml:"date"`
}

// SinceOptions controls how Since behaves when no trading date falls on or
// after the anchor.
type SinceOptions struct {
	// FallbackWindow, when positive, bases the series on the first of the
	// last FallbackWindow rows, so the series spans FallbackWindow rows
	// including the most recent one (or starts at the oldest row if the
	// matrix is shorter), instead of reporting insufficient data.
	FallbackWindow int
}

// Series is a cumulative percent return series per instrument from a base date
// to the most recent date. Dates are ascending and every slice in Values is
// aligned with Dates.
type Series struct {
	Label       string               `json:"label"`
	Anchor      time.Time            `json:"anchor"`
	Status      fund.Status          `json:"status"`
	Base        time.Time            `json:"base"`
	Fallback    bool                 `json:"fallback"`
	Instruments []string             `json:"instruments"`
	Dates       []time.Time          `json:"dates"`
	Values      map[string][]float64 `json:"-"`
	Final       map[string]float64   `json:"final"`
}

// YearAnchor returns an anchor on January 1st of the given year, labeled e.g.
// "since2024"
func YearAnchor(year int) Anchor {
	return Anchor{
		Label: fmt.Sprintf("since%d", year),
		Date:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// DefaultAnchors are the calendar anchors reported by default
func DefaultAnchors() []Anchor {
	return []Anchor{YearAnchor(2024), YearAnchor(2025)}
}

// calendarDay strips time and location so dates compare by calendar day
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Since computes (p[t] - p[base]) / p[base] * 100 for every row from the first
// trading date on or after the anchor through the most recent date.
// Instruments whose base price is missing are excluded. At least two rows are
// required from the base date onwards.
func Since(pm *fund.PriceMatrix, anchor Anchor, opts SinceOptions) *Series {
	series := &Series{
		Label:       anchor.Label,
		Anchor:      anchor.Date,
		Status:      fund.StatusInsufficientData,
		Instruments: []string{},
		Dates:       []time.Time{},
		Values:      make(map[string][]float64),
		Final:       make(map[string]float64),
	}

	if len(pm.Instruments()) == 0 {
		series.Status = fund.StatusNoSelection
		return series
	}

	asc := pm.Ascending()
	n := asc.Len()
	if n == 0 {
		return series
	}

	anchorDay := calendarDay(anchor.Date)
	baseIdx := -1
	for idx, dt := range asc.Dates {
		if !calendarDay(dt).Before(anchorDay) {
			baseIdx = idx
			break
		}
	}

	if baseIdx == -1 {
		if opts.FallbackWindow <= 0 {
			return series
		}
		baseIdx = n - opts.FallbackWindow
		if baseIdx < 0 {
			baseIdx = 0
		}
		series.Fallback = true
	}

	if n-baseIdx < 2 {
		return series
	}

	series.Base = asc.Dates[baseIdx]
	series.Dates = asc.Dates[baseIdx:]

	for colIdx, instrument := range asc.ColNames {
		col := asc.Vals[colIdx][baseIdx:]
		base := col[0]
		if math.IsNaN(base) || base == 0 {
			continue
		}

		vals := make([]float64, len(col))
		for idx, price := range col {
			vals[idx] = (price - base) / base * 100
		}

		series.Instruments = append(series.Instruments, instrument)
		series.Values[instrument] = vals
		series.Final[instrument] = vals[len(vals)-1]
	}

	if len(series.Instruments) > 0 {
		series.Status = fund.StatusOK
	}

	return series
}
