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

// Package chart renders PNG charts of fund analytics
package chart

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vicanso/go-charts/v2"

	"github.com/penny-vault/fund-monitor/attribution"
	"github.com/penny-vault/fund-monitor/catalog"
	"github.com/penny-vault/fund-monitor/dataframe"
	"github.com/penny-vault/fund-monitor/returns"
	"github.com/penny-vault/fund-monitor/risk"
)

const dateLabel = "2006-01-02"

var (
	ErrNoData = errors.New("not enough data to chart")
)

// Options sets the size of rendered images in pixels
type Options struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// DefaultOptions returns a 900x500 image size
func DefaultOptions() Options {
	return Options{
		Width:  900,
		Height: 500,
	}
}

func (o Options) common(title string, subtitle ...string) []charts.OptionFunc {
	return []charts.OptionFunc{
		charts.TitleTextOptionFunc(title, subtitle...),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(o.Width),
		charts.HeightOptionFunc(o.Height),
	}
}

// Contribution renders a bar per holding of its contribution to the fund's
// daily return, in percent
func Contribution(entries []attribution.Entry, names map[string]string, opts Options) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	labels := make([]string, len(entries))
	vals := make([]float64, len(entries))
	for idx, entry := range entries {
		labels[idx] = displayName(names, entry.Instrument)
		vals[idx] = finite(entry.Contribution * 100)
	}

	yMin, yMax := bounds([][]float64{vals}, true)
	p, err := charts.BarRender([][]float64{vals},
		append(opts.common("Contribution to daily return (%)"),
			charts.XAxisDataOptionFunc(labels),
			charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		)...,
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// Cumulative renders a cumulative percent return series per instrument
func Cumulative(series *returns.Series, names map[string]string, opts Options) ([]byte, error) {
	if !series.Status.Computed() || len(series.Dates) < 2 {
		return nil, ErrNoData
	}

	values := make([][]float64, 0, len(series.Instruments))
	legend := make([]string, 0, len(series.Instruments))
	for _, instrument := range series.Instruments {
		values = append(values, carryForward(series.Values[instrument]))
		legend = append(legend, displayName(names, instrument))
	}

	subtitle := fmt.Sprintf("base %s", series.Base.Format(dateLabel))
	return lines(fmt.Sprintf("Cumulative return %s (%%)", series.Label), subtitle, series.Dates, values, legend, opts)
}

// Growth renders rebased NAV growth (100 = first common date) per fund
func Growth(df *dataframe.DataFrame, opts Options) ([]byte, error) {
	if df == nil || df.Len() < 2 || df.ColCount() == 0 {
		return nil, ErrNoData
	}

	values := make([][]float64, len(df.Vals))
	for idx, col := range df.Vals {
		values[idx] = carryForward(col)
	}
	return lines("Growth of 100", "", df.Dates, values, df.ColNames, opts)
}

// Drawdown renders the drawdown of the fund in percent
func Drawdown(dd *risk.Drawdown, opts Options) ([]byte, error) {
	if dd == nil || len(dd.Dates) < 2 {
		return nil, ErrNoData
	}

	vals := make([]float64, len(dd.Values))
	for idx, v := range dd.Values {
		vals[idx] = v * 100
	}
	return lines("Drawdown (%)", "", dd.Dates, [][]float64{carryForward(vals)}, nil, opts)
}

// SectorAllocation renders a pie of sector weights
func SectorAllocation(alloc []catalog.Allocation, title string, opts Options) ([]byte, error) {
	if len(alloc) == 0 {
		return nil, ErrNoData
	}

	vals := make([]float64, len(alloc))
	labels := make([]string, len(alloc))
	for idx, a := range alloc {
		vals[idx] = finite(a.Weight)
		labels[idx] = fmt.Sprintf("%s (%.1f%%)", a.Sector, a.Weight*100)
	}

	p, err := charts.PieRender(vals,
		append(opts.common(title),
			charts.LegendOptionFunc(charts.LegendOption{
				Data: labels,
				Top:  charts.PositionTop,
			}),
		)...,
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

func lines(title, subtitle string, dates []time.Time, values [][]float64, legend []string, opts Options) ([]byte, error) {
	xLabels := make([]string, len(dates))
	for idx, dt := range dates {
		xLabels[idx] = dt.Format(dateLabel)
	}

	split := 8
	if len(xLabels) < split {
		split = len(xLabels)
	}

	yMin, yMax := bounds(values, false)
	chartOpts := append(opts.common(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
	)
	if len(legend) > 0 {
		chartOpts = append(chartOpts, charts.LegendOptionFunc(charts.LegendOption{Data: legend, Top: charts.PositionBottom}))
	}

	p, err := charts.LineRender(values, chartOpts...)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// bounds pads the value range by 5%. includeZero keeps the zero line in view.
func bounds(values [][]float64, includeZero bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	if includeZero {
		lo, hi = 0, 0
	}
	for _, series := range values {
		for _, v := range series {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}

	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}
	return lo - pad, hi + pad
}

// carryForward replaces NaN with the last valid value, or 0 before the first
func carryForward(vals []float64) []float64 {
	res := make([]float64, len(vals))
	last := 0.0
	for idx, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			last = v
		}
		res[idx] = last
	}
	return res
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func displayName(names map[string]string, instrument string) string {
	if name, ok := names[instrument]; ok && name != "" {
		return name
	}
	return instrument
}
