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

// Package compare ranks a fund against its peers on period-to-date returns
// computed from a matrix of net asset values.
package compare

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/fund-monitor/dataframe"
	"github.com/penny-vault/fund-monitor/fund"
	"github.com/penny-vault/fund-monitor/returns"
	"github.com/penny-vault/fund-monitor/tradecron"
)

const (
	DTD         = "DTD"
	WTD         = "WTD"
	MTD         = "MTD"
	YTD         = "YTD"
	SinceLaunch = "sinceLaunch"
)

var (
	ErrNoPeriods = errors.New("no comparison periods")
)

// Period is a labeled return window. Returns are measured from the first NAV
// on or after Base through the latest NAV.
type Period struct {
	Label string    `json:"label"`
	Base  time.Time `json:"base"`
}

// Entry holds the percent return of one fund for every period. Periods the
// fund has no data for are NaN.
type Entry struct {
	Fund    string             `json:"fund"`
	Launch  time.Time          `json:"launch"`
	Returns map[string]float64 `json:"returns"`
}

// Result is the peer comparison table
type Result struct {
	Status  fund.Status          `json:"status"`
	AsOf    time.Time            `json:"as_of"`
	Stale   bool                 `json:"stale"`
	Periods []Period             `json:"periods"`
	Entries []*Entry             `json:"entries"`
	Growth  *dataframe.DataFrame `json:"-"`
}

// Periods builds the standard comparison windows for the session ending on
// latest. Period-to-date windows are based on the close of the session before
// the period begins; the since-year window is based on the first session of
// that year and since-launch on each fund's first NAV.
func Periods(ms *tradecron.MarketStatus, latest time.Time, sinceYear int) []Period {
	periods := []Period{
		{Label: DTD, Base: ms.PreviousMarketDay(latest)},
		{Label: WTD, Base: ms.PreviousMarketDay(ms.FirstTradingDayOfWeek(latest))},
		{Label: MTD, Base: ms.PreviousMarketDay(ms.FirstTradingDayOfMonth(latest))},
		{Label: YTD, Base: ms.PreviousMarketDay(ms.FirstTradingDayOfYear(latest))},
	}

	if sinceYear > 0 {
		anchor := returns.YearAnchor(sinceYear)
		periods = append(periods, Period{Label: anchor.Label, Base: anchor.Date})
	}

	return append(periods, Period{Label: SinceLaunch})
}

// Compute calculates the return of every fund in navs over each period,
// measured through latest. navs may be in any date order; trailing rows with
// no NAV for any fund are ignored. An error is returned only for malformed
// NAV values.
func Compute(navs *dataframe.DataFrame, latest time.Time, periods []Period) (*Result, error) {
	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}

	res := &Result{
		Status:  fund.StatusNoSelection,
		Periods: periods,
		Entries: []*Entry{},
	}

	if navs.ColCount() == 0 {
		return res, nil
	}

	asc := throughDay(navs.Sort().DropEmptyTail(), latest)
	if asc.Len() < 2 {
		res.Status = fund.StatusInsufficientData
		return res, nil
	}

	res.AsOf = asc.End()
	res.Stale = !sameDay(res.AsOf, latest)
	if res.Stale {
		log.Warn().Time("Latest", latest).Time("AsOf", res.AsOf).Msg("NAV data does not include the latest session")
	}

	perFund := make(dataframe.Map, asc.ColCount())
	computed := false
	for _, name := range asc.ColNames {
		frame, err := fundFrame(asc, name)
		if err != nil {
			return nil, err
		}
		if frame.Len() == 0 {
			log.Debug().Str("Fund", name).Msg("fund has no NAV data")
			continue
		}
		perFund[name] = frame

		entry, ok, err := fundReturns(frame, name, periods)
		if err != nil {
			return nil, err
		}
		computed = computed || ok
		res.Entries = append(res.Entries, entry)
	}

	if !computed {
		res.Status = fund.StatusInsufficientData
		return res, nil
	}

	res.Status = fund.StatusOK
	res.Growth = Growth(perFund)
	return res, nil
}

// Growth rebases every fund to 100 on the first date all funds have data and
// compounds daily returns from there. A fund missing a NAV on a date carries
// its previous NAV forward.
func Growth(navs dataframe.Map) *dataframe.DataFrame {
	joined := navs.Align().DataFrame().Reverse().BackFill().Reverse()
	return joined.PctChange(1).AddScalar(1).CumProd().MulScalar(100)
}

// Get returns the return of a fund for a period
func (r *Result) Get(fundName, label string) (float64, bool) {
	for _, entry := range r.Entries {
		if entry.Fund == fundName {
			v, ok := entry.Returns[label]
			return v, ok && !math.IsNaN(v)
		}
	}
	return math.NaN(), false
}

// MarshalJSON encodes NaN returns as null
func (e *Entry) MarshalJSON() ([]byte, error) {
	vals := make(map[string]*float64, len(e.Returns))
	for k, v := range e.Returns {
		vals[k] = fund.NullableFloat(v)
	}

	return json.Marshal(struct {
		Fund    string              `json:"fund"`
		Launch  time.Time           `json:"launch"`
		Returns map[string]*float64 `json:"returns"`
	}{
		Fund:    e.Fund,
		Launch:  e.Launch,
		Returns: vals,
	})
}

func fundReturns(frame *dataframe.DataFrame, name string, periods []Period) (*Entry, bool, error) {
	entry := &Entry{
		Fund:    name,
		Launch:  frame.Start(),
		Returns: make(map[string]float64, len(periods)),
	}

	pm, err := fund.FromDataFrame(frame)
	if err != nil {
		return nil, false, fmt.Errorf("fund %q: %w", name, err)
	}

	computed := false
	for _, period := range periods {
		series := returns.Since(pm, returns.Anchor{Label: period.Label, Date: period.Base}, returns.SinceOptions{})
		v, ok := series.Final[name]
		if !series.Status.Computed() || !ok {
			entry.Returns[period.Label] = math.NaN()
			continue
		}
		entry.Returns[period.Label] = v
		computed = true
	}

	return entry, computed, nil
}

// fundFrame extracts a single fund's NAV column without the rows it has no
// value for
func fundFrame(asc *dataframe.DataFrame, name string) (*dataframe.DataFrame, error) {
	col, _ := asc.Column(name)
	dates := make([]time.Time, 0, len(col))
	vals := make([]float64, 0, len(col))
	for idx, v := range col {
		if math.IsNaN(v) {
			continue
		}
		dates = append(dates, asc.Dates[idx])
		vals = append(vals, v)
	}

	frame, err := dataframe.New(dates, []string{name}, [][]float64{vals})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fund.ErrMalformedInput, err.Error())
	}
	return frame, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// throughDay drops rows dated after the calendar day of latest. df must be
// sorted ascending.
func throughDay(df *dataframe.DataFrame, latest time.Time) *dataframe.DataFrame {
	limit := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC)
	end := df.Len()
	for end > 0 {
		dt := df.Dates[end-1]
		if !time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC).After(limit) {
			break
		}
		end--
	}

	switch end {
	case df.Len():
		return df
	case 0:
		empty := &dataframe.DataFrame{
			Dates:    []time.Time{},
			ColNames: df.ColNames,
			Vals:     make([][]float64, len(df.ColNames)),
		}
		for idx := range empty.Vals {
			empty.Vals[idx] = []float64{}
		}
		return empty
	default:
		return df.Trim(df.Start(), df.Dates[end-1])
	}
}
