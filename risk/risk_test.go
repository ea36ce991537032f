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

package risk_test

import (
	"math"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/fund-monitor/fund"
	"github.com/penny-vault/fund-monitor/risk"
)

var _ = Describe("Risk metrics", func() {
	Context("with a flat price series", func() {
		var m risk.Metrics

		BeforeEach(func() {
			returns := risk.DailyReturns([]float64{10, 10, 10, 10, 10})
			Expect(returns).To(Equal([]float64{0, 0, 0, 0}))
			m = risk.ComputeReturns(returns, risk.DefaultOptions())
		})

		It("has zero volatility", func() {
			Expect(m.Volatility).To(Equal(0.0))
		})

		It("has no drawdown", func() {
			Expect(m.MaxDrawdown).To(Equal(0.0))
		})

		It("has zero VaR", func() {
			Expect(m.VaR).To(Equal(0.0))
		})

		It("flags the Sharpe ratio as undefined", func() {
			Expect(m.SharpeDefined).To(BeFalse())
			Expect(math.IsNaN(m.SharpeRatio)).To(BeTrue())
		})

		It("encodes NaN as null", func() {
			data, err := json.Marshal(m)
			Expect(err).To(BeNil())
			Expect(string(data)).To(ContainSubstring(`"sharpe_ratio":null`))
		})
	})

	Context("when computing daily returns", func() {
		It("drops pairs with a missing price", func() {
			returns := risk.DailyReturns([]float64{100, math.NaN(), 110, 121})
			Expect(returns).To(HaveLen(1))
			Expect(returns[0]).To(BeNumerically("~", 0.10, 1e-12))
		})
	})

	Context("when computing drawdown", func() {
		It("is zero for a rising series", func() {
			Expect(risk.MaxDrawdown([]float64{0.01, 0.02, 0, 0.03})).To(Equal(0.0))
		})

		It("measures the peak to trough decline", func() {
			// growth: 1.1, 0.88, 0.968
			dd := risk.MaxDrawdown([]float64{0.10, -0.20, 0.10})
			Expect(dd).To(BeNumerically("~", -0.20, 1e-12))
		})

		It("never reports a positive drawdown", func() {
			for _, v := range risk.Drawdowns([]float64{0.05, -0.01, 0.2, -0.3, 0.1}) {
				Expect(v).To(BeNumerically("<=", 0))
			}
		})

		It("is NaN without returns", func() {
			Expect(math.IsNaN(risk.MaxDrawdown(nil))).To(BeTrue())
		})
	})

	Context("when computing VaR", func() {
		It("returns the empirical 5th percentile", func() {
			returns := make([]float64, 30)
			for idx := range returns {
				// -0.15, -0.14, ... 0.14, in reverse so sorting matters
				returns[len(returns)-1-idx] = float64(idx-15) / 100
			}
			// 5% of 30 observations is 1.5; the second smallest covers it
			Expect(risk.ValueAtRisk(returns, 0.95)).To(BeNumerically("~", -0.14, 1e-12))
		})

		It("does not reorder the input", func() {
			returns := []float64{0.02, -0.01, 0.03}
			risk.ValueAtRisk(returns, 0.95)
			Expect(returns).To(Equal([]float64{0.02, -0.01, 0.03}))
		})

		It("is NaN without returns", func() {
			Expect(math.IsNaN(risk.ValueAtRisk(nil, 0.95))).To(BeTrue())
		})
	})

	Context("when computing the Sharpe ratio", func() {
		It("annualizes the mean excess return", func() {
			returns := []float64{0.01, -0.005, 0.002, 0.007, -0.001}
			sharpe, ok := risk.SharpeRatio(returns, 0.02, 252)
			Expect(ok).To(BeTrue())
			expected := (stat.Mean(returns, nil) - 0.02/252) / stat.StdDev(returns, nil) * math.Sqrt(252)
			Expect(sharpe).To(BeNumerically("~", expected, 1e-12))
		})

		It("needs at least two returns", func() {
			_, ok := risk.SharpeRatio([]float64{0.01}, 0.02, 252)
			Expect(ok).To(BeFalse())
		})
	})

	Context("when computing volatility", func() {
		It("scales the sample standard deviation", func() {
			returns := []float64{0.01, -0.01, 0.01, -0.01}
			Expect(risk.Volatility(returns, 252)).To(BeNumerically("~", stat.StdDev(returns, nil)*math.Sqrt(252), 1e-12))
		})
	})
})

var _ = Describe("Risk engine", func() {
	var pm *fund.PriceMatrix

	BeforeEach(func() {
		pm = newestFirst([]string{"A", "B", "FLAT", "SHORT"},
			[]float64{104, 100, 102, 98, 100},
			[]float64{50, 52, 49, 51, 50},
			[]float64{7, 7, 7, 7, 7},
			[]float64{3, math.NaN(), math.NaN(), math.NaN(), math.NaN()},
		)
	})

	It("computes metrics per instrument", func() {
		res := risk.Compute(pm, risk.DefaultOptions())
		Expect(res.Status).To(Equal(fund.StatusOK))
		Expect(res.Instruments).To(Equal([]string{"A", "B", "FLAT"}))
		Expect(res.Skipped).To(Equal([]string{"SHORT"}))
		Expect(res.PerInstrument["A"].Observations).To(Equal(4))
		Expect(res.PerInstrument["FLAT"].Volatility).To(Equal(0.0))
	})

	It("averages instruments for the aggregate and says so", func() {
		res := risk.Compute(pm, risk.DefaultOptions())
		Expect(res.Approximation).To(Equal(risk.MeanOfInstruments))

		vol := (res.PerInstrument["A"].Volatility + res.PerInstrument["B"].Volatility + res.PerInstrument["FLAT"].Volatility) / 3
		Expect(res.Aggregate.Volatility).To(BeNumerically("~", vol, 1e-12))

		// FLAT has no Sharpe ratio and is left out of the mean
		sharpe := (res.PerInstrument["A"].SharpeRatio + res.PerInstrument["B"].SharpeRatio) / 2
		Expect(res.Aggregate.SharpeRatio).To(BeNumerically("~", sharpe, 1e-12))
		Expect(res.Aggregate.SharpeDefined).To(BeTrue())
	})

	It("signals an empty selection", func() {
		sel, _ := pm.Select()
		res := risk.Compute(sel, risk.DefaultOptions())
		Expect(res.Status).To(Equal(fund.StatusNoSelection))
	})

	It("computes fund level metrics from the share weighted value", func() {
		m, dd, status := risk.ComputeFund(pm, fund.Holdings{"A": 1, "B": 2}, risk.DefaultOptions())
		Expect(status).To(Equal(fund.StatusOK))
		Expect(m.Observations).To(Equal(4))
		Expect(dd.Values).To(HaveLen(4))
		Expect(dd.Dates).To(HaveLen(4))
		Expect(m.MaxDrawdown).To(BeNumerically("<=", 0))
	})
})
