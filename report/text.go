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
	"fmt"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
)

const dateFormat = "2006-01-02"

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func newTable(s *strings.Builder, title string, header []string) *tablewriter.Table {
	fmt.Fprintf(s, "\n%s\n", title)
	table := tablewriter.NewWriter(s)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	return table
}

// Text renders the report as ASCII tables for the terminal
func (r *Report) Text() string {
	s := &strings.Builder{}
	fmt.Fprintf(s, "Report %s as of %s (latest session %s)\n", r.ID, r.AsOf.Format(dateFormat), r.LatestSession.Format(dateFormat))
	r.FundText(s)
	r.ReturnsText(s)
	r.AttributionText(s)
	r.RiskText(s)
	r.ComparisonText(s)
	return s.String()
}

func (r *Report) name(instrument string) string {
	if name, ok := r.Names[instrument]; ok {
		return name
	}
	return instrument
}

// FundText writes the fund summary table
func (r *Report) FundText(s *strings.Builder) {
	f := r.Fund
	table := newTable(s, "Fund", []string{"Value", "Daily", "Annualized", "Volatility", "Max Drawdown", "VaR", "Sharpe", "Status"})
	table.Append([]string{
		number(f.Value), percent(f.DailyReturn), percent(f.Annualized),
		percent(f.Risk.Volatility), percent(f.Risk.MaxDrawdown), percent(f.Risk.VaR),
		number(f.Risk.SharpeRatio), string(f.Status),
	})
	table.Render()
}

// ReturnsText writes point and cumulative returns per instrument
func (r *Report) ReturnsText(s *strings.Builder) {
	if !r.Returns.Status.Computed() {
		fmt.Fprintf(s, "\nReturns: %s\n", r.Returns.Status)
		return
	}

	labels := append([]string{}, r.Returns.Labels...)
	if r.Cumulative != nil && r.Cumulative.Snapshots != nil {
		for _, label := range r.Cumulative.Snapshots.Labels {
			labels = append(labels, "cum "+label)
		}
	}

	table := newTable(s, "Returns", append([]string{"Instrument"}, labels...))
	for _, instrument := range r.Instruments {
		row := []string{r.name(instrument)}
		for _, label := range r.Returns.Labels {
			row = append(row, lookup(r.Returns.Get(label, instrument)))
		}
		if r.Cumulative != nil && r.Cumulative.Snapshots != nil {
			for _, label := range r.Cumulative.Snapshots.Labels {
				// cumulative snapshots are already percentages
				v, ok := r.Cumulative.Snapshots.Get(label, instrument)
				if !ok {
					row = append(row, "-")
					continue
				}
				row = append(row, percent(v/100))
			}
		}
		table.Append(row)
	}
	table.Render()
}

func lookup(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return percent(v)
}

// AttributionText writes the contribution of every holding to the daily return
func (r *Report) AttributionText(s *strings.Builder) {
	res := r.Attribution.Table
	if !res.Status.Computed() {
		fmt.Fprintf(s, "\nAttribution: %s\n", res.Status)
		return
	}

	table := newTable(s, fmt.Sprintf("Attribution %s vs %s", res.AsOf.Format(dateFormat), res.Prior.Format(dateFormat)),
		[]string{"Instrument", "Price Δ", "Impact", "Weight", "Contribution"})
	for _, entry := range res.Entries() {
		table.Append([]string{
			r.name(entry.Instrument), number(entry.PriceDelta), number(entry.PriceImpact),
			percent(entry.Weight), percent(entry.Contribution),
		})
	}
	table.SetFooter([]string{"Total", "", number(res.TotalImpact), "", percent(res.TotalContribution())})
	table.Render()

	stats := r.Attribution.Stats
	fmt.Fprintf(s, "positive: %d  negative: %d  mean: %s\n", stats.Positive, stats.Negative, percent(stats.Mean))

	if len(r.Attribution.Sectors) > 0 {
		sectors := newTable(s, "Sectors", []string{"Sector", "Holdings", "Weight", "Contribution"})
		for _, rollup := range r.Attribution.Sectors {
			sectors.Append([]string{rollup.Sector, fmt.Sprintf("%d", rollup.Holdings), percent(rollup.Weight), percent(rollup.Contribution)})
		}
		sectors.Render()
	}
}

// RiskText writes per-instrument risk metrics and their mean
func (r *Report) RiskText(s *strings.Builder) {
	if !r.Risk.Status.Computed() {
		fmt.Fprintf(s, "\nRisk: %s\n", r.Risk.Status)
		return
	}

	table := newTable(s, "Risk", []string{"Instrument", "Obs", "Volatility", "Max Drawdown", "VaR", "Sharpe"})
	for _, instrument := range r.Risk.Instruments {
		m := r.Risk.PerInstrument[instrument]
		table.Append([]string{
			r.name(instrument), fmt.Sprintf("%d", m.Observations), percent(m.Volatility),
			percent(m.MaxDrawdown), percent(m.VaR), number(m.SharpeRatio),
		})
	}
	agg := r.Risk.Aggregate
	table.SetFooter([]string{"Mean", "", percent(agg.Volatility), percent(agg.MaxDrawdown), percent(agg.VaR), number(agg.SharpeRatio)})
	table.Render()
}

// ComparisonText writes the peer comparison table
func (r *Report) ComparisonText(s *strings.Builder) {
	cmp := r.Comparison
	if cmp == nil {
		return
	}
	if !cmp.Status.Computed() {
		fmt.Fprintf(s, "\nComparison: %s\n", cmp.Status)
		return
	}

	header := []string{"Fund"}
	for _, period := range cmp.Periods {
		header = append(header, period.Label)
	}
	title := fmt.Sprintf("Comparison as of %s", cmp.AsOf.Format(dateFormat))
	if cmp.Stale {
		title += " (stale)"
	}
	table := newTable(s, title, header)
	for _, entry := range cmp.Entries {
		row := []string{entry.Fund}
		for _, period := range cmp.Periods {
			row = append(row, percent(entry.Returns[period.Label]/100))
		}
		table.Append(row)
	}
	table.Render()
}
