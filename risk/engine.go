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

package risk

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/fund-monitor/fund"
)

// Result holds per-instrument metrics and their aggregate. Instruments with
// fewer than two daily returns are omitted and listed in Skipped.
type Result struct {
	Status        fund.Status        `json:"status"`
	Instruments   []string           `json:"instruments"`
	Skipped       []string           `json:"skipped"`
	PerInstrument map[string]Metrics `json:"per_instrument"`

	// Aggregate is the arithmetic mean of each per-instrument metric, NaN
	// values ignored. It approximates, and is not equal to, the fund's own
	// risk; see Approximation.
	Aggregate     Metrics `json:"aggregate"`
	Approximation string  `json:"approximation"`
}

// Drawdown is a drawdown series for charting, ascending by date
type Drawdown struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Compute derives risk metrics for every instrument in pm
func Compute(pm *fund.PriceMatrix, opts Options) *Result {
	res := &Result{
		Status:        fund.StatusInsufficientData,
		Instruments:   []string{},
		Skipped:       []string{},
		PerInstrument: make(map[string]Metrics),
		Aggregate:     nanMetrics(),
		Approximation: MeanOfInstruments,
	}

	asc := pm.Ascending()
	if asc.ColCount() == 0 {
		res.Status = fund.StatusNoSelection
		return res
	}

	for colIdx, instrument := range asc.ColNames {
		returns := DailyReturns(asc.Vals[colIdx])
		if len(returns) < 2 {
			log.Debug().Str("Instrument", instrument).Int("Observations", len(returns)).Msg("not enough daily returns for risk metrics")
			res.Skipped = append(res.Skipped, instrument)
			continue
		}
		res.Instruments = append(res.Instruments, instrument)
		res.PerInstrument[instrument] = ComputeReturns(returns, opts)
	}

	if len(res.Instruments) == 0 {
		return res
	}

	res.Status = fund.StatusOK
	res.Aggregate = mean(res)
	return res
}

// ComputeFund derives metrics from the share-weighted value of the fund. This
// is the exact fund-level counterpart of Result.Aggregate.
func ComputeFund(pm *fund.PriceMatrix, holdings fund.Holdings, opts Options) (Metrics, *Drawdown, fund.Status) {
	vs := fund.Value(pm, holdings)

	dates, values := vs.Ascending()
	n := len(values)

	drawdown := &Drawdown{Dates: []time.Time{}, Values: []float64{}}
	for idx := 1; idx < n; idx++ {
		if math.IsNaN(values[idx-1]) || math.IsNaN(values[idx]) || values[idx-1] == 0 {
			continue
		}
		drawdown.Dates = append(drawdown.Dates, dates[idx])
	}

	returns := DailyReturns(values)
	if len(returns) < 2 {
		return nanMetrics(), &Drawdown{Dates: []time.Time{}, Values: []float64{}}, fund.StatusInsufficientData
	}

	drawdown.Values = Drawdowns(returns)
	return ComputeReturns(returns, opts), drawdown, fund.StatusOK
}

func nanMetrics() Metrics {
	return Metrics{
		Volatility:  math.NaN(),
		MaxDrawdown: math.NaN(),
		VaR:         math.NaN(),
		SharpeRatio: math.NaN(),
	}
}

func mean(res *Result) Metrics {
	collect := func(get func(Metrics) float64) float64 {
		vals := make([]float64, 0, len(res.Instruments))
		for _, instrument := range res.Instruments {
			v := get(res.PerInstrument[instrument])
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return math.NaN()
		}
		return stat.Mean(vals, nil)
	}

	agg := Metrics{
		Volatility:  collect(func(m Metrics) float64 { return m.Volatility }),
		MaxDrawdown: collect(func(m Metrics) float64 { return m.MaxDrawdown }),
		VaR:         collect(func(m Metrics) float64 { return m.VaR }),
		SharpeRatio: collect(func(m Metrics) float64 { return m.SharpeRatio }),
	}
	agg.SharpeDefined = !math.IsNaN(agg.SharpeRatio)

	for _, instrument := range res.Instruments {
		agg.Observations += res.PerInstrument[instrument].Observations
	}

	return agg
}
