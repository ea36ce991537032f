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
	"math"

	"github.com/penny-vault/fund-monitor/spreadsheet"
)

// Export writes every table in the report as a sheet of ex
func (r *Report) Export(ex *spreadsheet.Exporter) error {
	steps := []func(*spreadsheet.Exporter) error{
		r.exportReturns,
		r.exportAttribution,
		r.exportRisk,
		r.exportAllocation,
		r.exportComparison,
	}
	for _, step := range steps {
		if err := step(ex); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) exportReturns(ex *spreadsheet.Exporter) error {
	header := []string{"Instrument", "Name"}
	header = append(header, r.Returns.Labels...)
	rows := make([][]interface{}, 0, len(r.Instruments))
	for _, instrument := range r.Instruments {
		row := []interface{}{instrument, r.name(instrument)}
		for _, label := range r.Returns.Labels {
			row = append(row, orNaN(r.Returns.Get(label, instrument)))
		}
		rows = append(rows, row)
	}
	if err := ex.AddTable("Returns", header, rows); err != nil {
		return err
	}

	if r.Cumulative == nil || r.Cumulative.Snapshots == nil {
		return nil
	}
	snapshots := r.Cumulative.Snapshots
	header = append([]string{"Instrument", "Name"}, snapshots.Labels...)
	rows = make([][]interface{}, 0, len(r.Instruments))
	for _, instrument := range r.Instruments {
		row := []interface{}{instrument, r.name(instrument)}
		for _, label := range snapshots.Labels {
			row = append(row, orNaN(snapshots.Get(label, instrument)))
		}
		rows = append(rows, row)
	}
	return ex.AddTable("Cumulative", header, rows)
}

func (r *Report) exportAttribution(ex *spreadsheet.Exporter) error {
	res := r.Attribution.Table
	header := []string{"Instrument", "Name", "Price Delta", "Price Impact", "Prior Value", "Weight", "Contribution"}
	entries := res.Entries()
	rows := make([][]interface{}, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []interface{}{
			entry.Instrument, r.name(entry.Instrument), entry.PriceDelta, entry.PriceImpact,
			res.PriorValue[entry.Instrument], entry.Weight, entry.Contribution,
		})
	}
	if err := ex.AddTable("Attribution", header, rows); err != nil {
		return err
	}

	header = []string{"Sector", "Holdings", "Prior Value", "Weight", "Contribution"}
	rows = make([][]interface{}, 0, len(r.Attribution.Sectors))
	for _, rollup := range r.Attribution.Sectors {
		rows = append(rows, []interface{}{rollup.Sector, rollup.Holdings, rollup.PriorValue, rollup.Weight, rollup.Contribution})
	}
	return ex.AddTable("Sectors", header, rows)
}

func (r *Report) exportRisk(ex *spreadsheet.Exporter) error {
	header := []string{"Instrument", "Name", "Observations", "Volatility", "Max Drawdown", "VaR", "Sharpe"}
	rows := make([][]interface{}, 0, len(r.Risk.Instruments)+2)
	for _, instrument := range r.Risk.Instruments {
		m := r.Risk.PerInstrument[instrument]
		rows = append(rows, []interface{}{instrument, r.name(instrument), m.Observations, m.Volatility, m.MaxDrawdown, m.VaR, m.SharpeRatio})
	}
	agg := r.Risk.Aggregate
	rows = append(rows, []interface{}{"MEAN", r.Risk.Approximation, agg.Observations, agg.Volatility, agg.MaxDrawdown, agg.VaR, agg.SharpeRatio})
	f := r.Fund.Risk
	rows = append(rows, []interface{}{"FUND", string(r.Fund.Status), f.Observations, f.Volatility, f.MaxDrawdown, f.VaR, f.SharpeRatio})
	return ex.AddTable("Risk", header, rows)
}

func (r *Report) exportAllocation(ex *spreadsheet.Exporter) error {
	header := []string{"Sector", "Holdings", "Value", "Weight"}
	rows := make([][]interface{}, 0, len(r.Allocation.ByValue))
	for _, alloc := range r.Allocation.ByValue {
		rows = append(rows, []interface{}{alloc.Sector, alloc.Count, alloc.Value, alloc.Weight})
	}
	return ex.AddTable("Allocation", header, rows)
}

func (r *Report) exportComparison(ex *spreadsheet.Exporter) error {
	cmp := r.Comparison
	if cmp == nil || !cmp.Status.Computed() {
		return nil
	}

	header := []string{"Fund", "Launch"}
	for _, period := range cmp.Periods {
		header = append(header, period.Label)
	}
	rows := make([][]interface{}, 0, len(cmp.Entries))
	for _, entry := range cmp.Entries {
		row := []interface{}{entry.Fund, entry.Launch}
		for _, period := range cmp.Periods {
			row = append(row, entry.Returns[period.Label])
		}
		rows = append(rows, row)
	}
	if err := ex.AddTable("Comparison", header, rows); err != nil {
		return err
	}

	if cmp.Growth == nil || cmp.Growth.Len() == 0 {
		return nil
	}
	return ex.AddFrame("Growth", cmp.Growth)
}

func orNaN(v float64, ok bool) float64 {
	if !ok {
		return math.NaN()
	}
	return v
}
