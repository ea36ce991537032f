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

package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/penny-vault/fund-monitor/chart"
	"github.com/penny-vault/fund-monitor/returns"
)

const (
	ChartContribution = "contribution"
	ChartCumulative   = "cumulative"
	ChartDrawdown     = "drawdown"
	ChartSectors      = "sectors"
	ChartGrowth       = "growth"

	// SectorsByCount selects the holding count allocation for ChartSectors
	SectorsByCount = "count"
)

var (
	ErrUnknownChart = errors.New("unknown chart")
)

// ChartNames lists every chart Chart can render
func ChartNames() []string {
	return []string{ChartContribution, ChartCumulative, ChartDrawdown, ChartSectors, ChartGrowth}
}

// Chart renders the named chart as a PNG. variant selects the anchor label for
// ChartCumulative (the earliest anchor when empty) and "count" or "value" for
// ChartSectors.
func (r *Report) Chart(name, variant string, opts chart.Options) ([]byte, error) {
	switch name {
	case ChartContribution:
		return chart.Contribution(r.Attribution.Table.Entries(), r.Names, opts)
	case ChartCumulative:
		series, err := r.cumulativeSeries(variant)
		if err != nil {
			return nil, err
		}
		return chart.Cumulative(series, r.Names, opts)
	case ChartDrawdown:
		return chart.Drawdown(r.Fund.Drawdown, opts)
	case ChartSectors:
		if variant == SectorsByCount {
			return chart.SectorAllocation(r.Allocation.ByCount, "Holdings by sector", opts)
		}
		return chart.SectorAllocation(r.Allocation.ByValue, "Value by sector", opts)
	case ChartGrowth:
		if r.Comparison == nil {
			return nil, chart.ErrNoData
		}
		return chart.Growth(r.Comparison.Growth, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// cumulativeSeries returns the anchor series restricted to the top cumulative
// performers
func (r *Report) cumulativeSeries(label string) (*returns.Series, error) {
	if r.Cumulative == nil || len(r.Cumulative.Series) == 0 {
		return nil, chart.ErrNoData
	}

	if label == "" {
		labels := make([]string, 0, len(r.Cumulative.Series))
		for k, series := range r.Cumulative.Series {
			if series.Status.Computed() {
				labels = append(labels, k)
			}
		}
		if len(labels) == 0 {
			return nil, chart.ErrNoData
		}
		sort.Slice(labels, func(i, j int) bool {
			return r.Cumulative.Series[labels[i]].Anchor.Before(r.Cumulative.Series[labels[j]].Anchor)
		})
		label = labels[0]
	}

	series, ok := r.Cumulative.Series[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, label)
	}
	if len(r.TopCumulative) == 0 {
		return series, nil
	}

	selected := *series
	selected.Instruments = make([]string, 0, len(r.TopCumulative))
	for _, instrument := range r.TopCumulative {
		if _, ok := series.Values[instrument]; ok {
			selected.Instruments = append(selected.Instruments, instrument)
		}
	}
	if len(selected.Instruments) == 0 {
		return series, nil
	}
	return &selected, nil
}
