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

package attribution

import (
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/penny-vault/fund-monitor/fund"
)

// Filter names a preset view of the attribution table
type Filter string

const (
	FilterAll             Filter = "all"
	FilterPositive        Filter = "positive"
	FilterNegative        Filter = "negative"
	FilterTopWeight       Filter = "top_weight"
	FilterTopContribution Filter = "top_contribution"
)

// filterTopSize is the number of rows kept by the top weight / contribution filters
const filterTopSize = 10

// Stats summarizes the sign of contributions
type Stats struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Total    float64 `json:"total"`
	Mean     float64 `json:"mean"`
}

// MarshalJSON encodes an undefined mean as null
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Positive int      `json:"positive"`
		Negative int      `json:"negative"`
		Total    float64  `json:"total"`
		Mean     *float64 `json:"mean"`
	}{
		Positive: s.Positive,
		Negative: s.Negative,
		Total:    s.Total,
		Mean:     fund.NullableFloat(s.Mean),
	})
}

// Movers lists instruments whose one-day price change crossed a threshold
type Movers struct {
	Threshold float64 `json:"threshold"`
	Up        []Entry `json:"up"`
	Down      []Entry `json:"down"`
}

// rank returns entries ordered by key descending; ties keep column order
func (r *Result) rank(key func(Entry) float64) []Entry {
	entries := r.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return key(entries[i]) > key(entries[j])
	})
	return entries
}

func limit(entries []Entry, n int) []Entry {
	if n >= 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

// Top returns the n entries with the largest absolute contribution. Values
// keep their sign so gainers and losers remain distinguishable.
func (r *Result) Top(n int) []Entry {
	return limit(r.rank(func(e Entry) float64 { return math.Abs(e.Contribution) }), n)
}

// Gainers returns up to n instruments with a positive price delta, largest first
func (r *Result) Gainers(n int) []Entry {
	entries := []Entry{}
	for _, e := range r.rank(func(e Entry) float64 { return e.PriceDelta }) {
		if e.PriceDelta > 0 {
			entries = append(entries, e)
		}
	}
	return limit(entries, n)
}

// Losers returns up to n instruments with a negative price delta, most negative first
func (r *Result) Losers(n int) []Entry {
	entries := []Entry{}
	for _, e := range r.rank(func(e Entry) float64 { return -e.PriceDelta }) {
		if e.PriceDelta < 0 {
			entries = append(entries, e)
		}
	}
	return limit(entries, n)
}

// Stats counts positive and negative contributors and sums contributions
func (r *Result) Stats() Stats {
	stats := Stats{Mean: math.NaN()}
	for _, instrument := range r.Instruments {
		c := r.Contribution[instrument]
		switch {
		case c > 0:
			stats.Positive++
		case c < 0:
			stats.Negative++
		}
		stats.Total += c
	}
	if len(r.Instruments) > 0 {
		stats.Mean = stats.Total / float64(len(r.Instruments))
	}
	return stats
}

// Filter returns entries matching the preset, sorted by contribution descending
func (r *Result) Filter(filter Filter) []Entry {
	byContribution := r.rank(func(e Entry) float64 { return e.Contribution })

	switch filter {
	case FilterPositive:
		return keep(byContribution, func(e Entry) bool { return e.Contribution > 0 })
	case FilterNegative:
		return keep(byContribution, func(e Entry) bool { return e.Contribution < 0 })
	case FilterTopWeight:
		top := limit(r.rank(func(e Entry) float64 { return e.Weight }), filterTopSize)
		names := make(map[string]bool, len(top))
		for _, e := range top {
			names[e.Instrument] = true
		}
		return keep(byContribution, func(e Entry) bool { return names[e.Instrument] })
	case FilterTopContribution:
		return limit(byContribution, filterTopSize)
	default:
		return byContribution
	}
}

// Search returns entries whose identifier (or display name, when names is
// non-nil) contains term, case-insensitively
func (r *Result) Search(term string, names map[string]string) []Entry {
	term = strings.ToLower(term)
	return keep(r.rank(func(e Entry) float64 { return e.Contribution }), func(e Entry) bool {
		if strings.Contains(strings.ToLower(e.Instrument), term) {
			return true
		}
		name, ok := names[e.Instrument]
		return ok && strings.Contains(strings.ToLower(name), term)
	})
}

// Movers lists instruments whose absolute price delta is at least threshold
func (r *Result) Movers(threshold float64) Movers {
	movers := Movers{Threshold: threshold, Up: []Entry{}, Down: []Entry{}}
	for _, e := range r.rank(func(e Entry) float64 { return e.PriceDelta }) {
		if e.PriceDelta >= threshold {
			movers.Up = append(movers.Up, e)
		}
	}
	for _, e := range r.rank(func(e Entry) float64 { return -e.PriceDelta }) {
		if e.PriceDelta <= -threshold {
			movers.Down = append(movers.Down, e)
		}
	}
	return movers
}

// Drivers returns up to n instruments whose price impact points the same way
// as the total impact, largest magnitude first
func (r *Result) Drivers(n int) []Entry {
	sign := 1.0
	if r.TotalImpact < 0 {
		sign = -1
	}
	drivers := keep(r.rank(func(e Entry) float64 { return sign * e.PriceImpact }), func(e Entry) bool {
		return sign*e.PriceImpact > 0
	})
	return limit(drivers, n)
}

func keep(entries []Entry, pred func(Entry) bool) []Entry {
	res := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if pred(e) {
			res = append(res, e)
		}
	}
	return res
}
