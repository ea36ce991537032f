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

// Package risk computes descriptive risk statistics from daily returns.
// Volatility, drawdown, VaR and Sharpe ratio for an instrument are always
// derived from the same return series.
package risk

import (
	"math"
	"sort"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/fund-monitor/fund"
)

const (
	DefaultTradingDays  = 252
	DefaultRiskFreeRate = 0.02
	DefaultConfidence   = 0.95

	// MeanOfInstruments marks an aggregate that averages per-instrument
	// metrics rather than measuring the fund's own return series
	MeanOfInstruments = "mean_of_instruments"
)

// Options are the annualization and tail parameters
type Options struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	TradingDays  int     `mapstructure:"trading_days"`
	Confidence   float64 `mapstructure:"confidence"`
}

// DefaultOptions returns a 2% risk free rate, 252 trading days and 95% VaR
func DefaultOptions() Options {
	return Options{
		RiskFreeRate: DefaultRiskFreeRate,
		TradingDays:  DefaultTradingDays,
		Confidence:   DefaultConfidence,
	}
}

// Metrics are the risk statistics of one return series
type Metrics struct {
	Observations  int
	Volatility    float64
	MaxDrawdown   float64
	VaR           float64
	SharpeRatio   float64
	SharpeDefined bool
}

// MarshalJSON encodes NaN values as null
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Observations  int      `json:"observations"`
		Volatility    *float64 `json:"volatility"`
		MaxDrawdown   *float64 `json:"max_drawdown"`
		VaR           *float64 `json:"var"`
		SharpeRatio   *float64 `json:"sharpe_ratio"`
		SharpeDefined bool     `json:"sharpe_defined"`
	}{
		Observations:  m.Observations,
		Volatility:    fund.NullableFloat(m.Volatility),
		MaxDrawdown:   fund.NullableFloat(m.MaxDrawdown),
		VaR:           fund.NullableFloat(m.VaR),
		SharpeRatio:   fund.NullableFloat(m.SharpeRatio),
		SharpeDefined: m.SharpeDefined,
	})
}

// DailyReturns computes p[t]/p[t-1] - 1 over prices in ascending date order.
// Pairs where either price is missing (NaN) or the earlier price is zero are
// dropped.
func DailyReturns(prices []float64) []float64 {
	res := make([]float64, 0, len(prices))
	for idx := 1; idx < len(prices); idx++ {
		prev := prices[idx-1]
		cur := prices[idx]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			continue
		}
		res = append(res, cur/prev-1)
	}
	return res
}

// Volatility is the sample standard deviation of returns scaled by
// sqrt(tradingDays). NaN with fewer than 2 returns.
func Volatility(returns []float64, tradingDays int) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	return stat.StdDev(returns, nil) * math.Sqrt(float64(tradingDays))
}

// Drawdowns returns (G[t] - peak[t]) / peak[t] where G is the cumulative
// growth of 1 unit invested and peak its running maximum. Every value is <= 0.
func Drawdowns(returns []float64) []float64 {
	res := make([]float64, len(returns))
	growth := 1.0
	peak := math.Inf(-1)
	for idx, r := range returns {
		growth *= 1 + r
		if growth > peak {
			peak = growth
		}
		res[idx] = (growth - peak) / peak
	}
	return res
}

// MaxDrawdown returns the most negative drawdown; 0 when the series never
// declines and NaN when there are no returns
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	worst := 0.0
	for _, dd := range Drawdowns(returns) {
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// ValueAtRisk returns the empirical (1 - confidence) quantile of returns: the
// smallest return such that at least (1 - confidence) of observations are at
// or below it. Losses are negative.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 || confidence <= 0 || confidence >= 1 {
		return math.NaN()
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	return stat.Quantile(1-confidence, stat.Empirical, sorted, nil)
}

// SharpeRatio computes mean(r - rf/tradingDays) / stdev(r) * sqrt(tradingDays).
// The boolean is false, and the ratio NaN, when the standard deviation is zero
// or undefined.
func SharpeRatio(returns []float64, riskFreeRate float64, tradingDays int) (float64, bool) {
	if len(returns) < 2 {
		return math.NaN(), false
	}
	sd := stat.StdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return math.NaN(), false
	}
	excess := stat.Mean(returns, nil) - riskFreeRate/float64(tradingDays)
	return excess / sd * math.Sqrt(float64(tradingDays)), true
}

// ComputeReturns derives every metric from one daily return series
func ComputeReturns(returns []float64, opts Options) Metrics {
	sharpe, defined := SharpeRatio(returns, opts.RiskFreeRate, opts.TradingDays)
	return Metrics{
		Observations:  len(returns),
		Volatility:    Volatility(returns, opts.TradingDays),
		MaxDrawdown:   MaxDrawdown(returns),
		VaR:           ValueAtRisk(returns, opts.Confidence),
		SharpeRatio:   sharpe,
		SharpeDefined: defined,
	}
}
