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
	"math"
	"sort"

	"github.com/penny-vault/fund-monitor/fund"
)

const (
	// TradingDaysPerYear is the assumed number of trading days in a year
	TradingDaysPerYear = 252

	// MinAnnualizeRows is the number of rows a series must exceed before a
	// partial year return is annualized
	MinAnnualizeRows = 30
)

// Cumulative bundles cumulative percent returns for row offsets and calendar
// anchors. Snapshots holds one value per instrument per label (offset labels
// first, then anchor labels); Series holds the full anchor series for
// charting.
type Cumulative struct {
	Status    fund.Status        `json:"status"`
	Snapshots *Result            `json:"snapshots"`
	Series    map[string]*Series `json:"series"`
}

// ComputeCumulative computes cumulative returns over row offsets and
// calendar anchors in one pass.
func ComputeCumulative(pm *fund.PriceMatrix, offsets []int, anchors []Anchor, opts SinceOptions) *Cumulative {
	cum := &Cumulative{
		Snapshots: CumulativeByOffset(pm, offsets),
		Series:    make(map[string]*Series, len(anchors)),
	}

	if cum.Snapshots.Status == fund.StatusNoSelection {
		cum.Status = fund.StatusNoSelection
		return cum
	}

	for _, anchor := range anchors {
		series := Since(pm, anchor, opts)
		cum.Series[anchor.Label] = series
		if series.Status == fund.StatusOK {
			cum.Snapshots.add(anchor.Label, series.Final)
		}
	}

	cum.Status = fund.StatusInsufficientData
	if len(cum.Snapshots.Labels) > 0 {
		cum.Status = fund.StatusOK
		cum.Snapshots.Status = fund.StatusOK
	}

	return cum
}

// TopN returns up to n instruments with the highest return for the period,
// e.g. the default chart selection of the top 10 by 30 day return. Ties keep
// identifier order.
func (r *Result) TopN(label string, n int) []string {
	period, ok := r.Periods[label]
	if !ok {
		return []string{}
	}

	instruments := make([]string, 0, len(period))
	for k := range period {
		instruments = append(instruments, k)
	}
	sort.Strings(instruments)
	sort.SliceStable(instruments, func(i, j int) bool {
		return period[instruments[i]] > period[instruments[j]]
	})

	if len(instruments) > n {
		instruments = instruments[:n]
	}
	return instruments
}

// Annualized returns the annualized return of a value series ordered most
// recent first. With more than one year of rows the trailing 252 row return is
// used; with more than 30 rows the whole-series return is compounded to a
// year; otherwise the result is not computable.
func Annualized(values []float64) (float64, fund.Status) {
	n := len(values)
	switch {
	case n > TradingDaysPerYear:
		past := values[TradingDaysPerYear]
		if math.IsNaN(past) || past == 0 || math.IsNaN(values[0]) {
			return math.NaN(), fund.StatusNotComputable
		}
		return values[0]/past - 1, fund.StatusOK
	case n > MinAnnualizeRows:
		past := values[n-1]
		if math.IsNaN(past) || past == 0 || math.IsNaN(values[0]) {
			return math.NaN(), fund.StatusNotComputable
		}
		total := values[0]/past - 1
		days := float64(n - 1)
		return math.Pow(1+total, TradingDaysPerYear/days) - 1, fund.StatusOK
	default:
		return math.NaN(), fund.StatusInsufficientData
	}
}
