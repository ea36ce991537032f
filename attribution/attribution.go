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

// Package attribution breaks the fund's one-day value change down by holding.
package attribution

import (
	"math"
	"time"

	"github.com/penny-vault/fund-monitor/fund"
)

// Result holds aligned per-instrument attribution series for the most recent
// trading day. When Status is not StatusOK every series is empty.
type Result struct {
	Status          fund.Status        `json:"status"`
	AsOf            time.Time          `json:"as_of"`
	Prior           time.Time          `json:"prior"`
	Instruments     []string           `json:"instruments"`
	Missing         []string           `json:"missing"`
	PriceDelta      map[string]float64 `json:"price_delta"`
	PriceImpact     map[string]float64 `json:"price_impact"`
	PriorValue      map[string]float64 `json:"prior_value"`
	Contribution    map[string]float64 `json:"contribution"`
	Weight          map[string]float64 `json:"weight"`
	TotalPriorValue float64            `json:"total_prior_value"`
	TotalImpact     float64            `json:"total_impact"`
}

// Entry is one instrument's attribution row
type Entry struct {
	Instrument   string  `json:"instrument"`
	PriceDelta   float64 `json:"price_delta"`
	PriceImpact  float64 `json:"price_impact"`
	Contribution float64 `json:"contribution"`
	Weight       float64 `json:"weight"`
}

func empty(status fund.Status) *Result {
	return &Result{
		Status:       status,
		Instruments:  []string{},
		Missing:      []string{},
		PriceDelta:   map[string]float64{},
		PriceImpact:  map[string]float64{},
		PriorValue:   map[string]float64{},
		Contribution: map[string]float64{},
		Weight:       map[string]float64{},
	}
}

// Compute attributes the change between the two most recent rows of pm to
// each holding:
//
//	price_delta  = (p0 - p1) / p1
//	price_impact = (p0 - p1) * shares
//	prior_value  = p1 * shares
//	contribution = price_impact / sum(prior_value)
//
// Holdings without a price on either day, and priced instruments that are
// not held, are excluded. Fewer than two rows yields StatusNotComputable; a
// zero or NaN total prior value yields StatusDegenerateDenominator.
func Compute(pm *fund.PriceMatrix, holdings fund.Holdings) *Result {
	if pm.Len() < 2 {
		return empty(fund.StatusNotComputable)
	}

	priced, missing := holdings.Coverage(pm)
	if len(priced) == 0 {
		res := empty(fund.StatusNoSelection)
		if missing != nil {
			res.Missing = missing
		}
		return res
	}

	res := empty(fund.StatusOK)
	res.AsOf = pm.Date(0)
	res.Prior = pm.Date(1)

	for _, instrument := range priced {
		p0, ok0 := pm.Price(0, instrument)
		p1, ok1 := pm.Price(1, instrument)
		if !ok0 || !ok1 || p1 == 0 {
			res.Missing = append(res.Missing, instrument)
			continue
		}

		shares := holdings[instrument]
		res.Instruments = append(res.Instruments, instrument)
		res.PriceDelta[instrument] = (p0 - p1) / p1
		res.PriceImpact[instrument] = (p0 - p1) * shares
		res.PriorValue[instrument] = p1 * shares
		res.TotalPriorValue += res.PriorValue[instrument]
		res.TotalImpact += res.PriceImpact[instrument]
	}
	res.Missing = append(res.Missing, missing...)

	if res.TotalPriorValue == 0 || math.IsNaN(res.TotalPriorValue) {
		degenerate := empty(fund.StatusDegenerateDenominator)
		degenerate.AsOf = res.AsOf
		degenerate.Prior = res.Prior
		degenerate.Missing = res.Missing
		degenerate.TotalPriorValue = res.TotalPriorValue
		return degenerate
	}

	for _, instrument := range res.Instruments {
		res.Contribution[instrument] = res.PriceImpact[instrument] / res.TotalPriorValue
		res.Weight[instrument] = res.PriorValue[instrument] / res.TotalPriorValue
	}

	return res
}

// Entries returns every instrument's attribution in matrix column order
func (r *Result) Entries() []Entry {
	entries := make([]Entry, 0, len(r.Instruments))
	for _, instrument := range r.Instruments {
		entries = append(entries, r.entry(instrument))
	}
	return entries
}

func (r *Result) entry(instrument string) Entry {
	return Entry{
		Instrument:   instrument,
		PriceDelta:   r.PriceDelta[instrument],
		PriceImpact:  r.PriceImpact[instrument],
		Contribution: r.Contribution[instrument],
		Weight:       r.Weight[instrument],
	}
}

// TotalContribution is sum(contribution). With complete coverage it equals
// the fund's one-day return.
func (r *Result) TotalContribution() float64 {
	total := 0.0
	for _, v := range r.Contribution {
		total += v
	}
	return total
}
