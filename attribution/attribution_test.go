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

package attribution_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/fund-monitor/attribution"
	"github.com/penny-vault/fund-monitor/fund"
)

var _ = Describe("Attribution", func() {
	Context("with two holdings that both rise 10%", func() {
		var (
			pm       *fund.PriceMatrix
			holdings fund.Holdings
			res      *attribution.Result
		)

		BeforeEach(func() {
			pm = newestFirst([]string{"A", "B"},
				[]float64{110, 100, 90},
				[]float64{55, 50, 45},
			)
			holdings = fund.Holdings{"A": 2, "B": 4}
			res = attribution.Compute(pm, holdings)
		})

		It("is computable", func() {
			Expect(res.Status).To(Equal(fund.StatusOK))
			Expect(res.Instruments).To(Equal([]string{"A", "B"}))
		})

		It("computes price deltas", func() {
			Expect(res.PriceDelta["A"]).To(BeNumerically("~", 0.10, 1e-12))
			Expect(res.PriceDelta["B"]).To(BeNumerically("~", 0.10, 1e-12))
		})

		It("computes price impacts", func() {
			Expect(res.PriceImpact["A"]).To(BeNumerically("~", 20, 1e-12))
			Expect(res.PriceImpact["B"]).To(BeNumerically("~", 20, 1e-12))
		})

		It("computes prior values", func() {
			Expect(res.PriorValue).To(Equal(map[string]float64{"A": 200, "B": 200}))
			Expect(res.TotalPriorValue).To(Equal(400.0))
		})

		It("computes contributions", func() {
			Expect(res.Contribution["A"]).To(BeNumerically("~", 0.05, 1e-12))
			Expect(res.Contribution["B"]).To(BeNumerically("~", 0.05, 1e-12))
		})

		It("sums contributions to the fund's one-day return", func() {
			vs := fund.Value(pm, holdings)
			Expect(res.TotalContribution()).To(BeNumerically("~", 0.10, 1e-6))
			Expect(res.TotalContribution()).To(BeNumerically("~", vs.DailyReturn(), 1e-6))
		})

		It("computes weights", func() {
			Expect(res.Weight["A"]).To(BeNumerically("~", 0.5, 1e-12))
		})
	})

	Context("when attribution cannot be computed", func() {
		It("returns empty series for a single row", func() {
			pm := newestFirst([]string{"A"}, []float64{10})
			res := attribution.Compute(pm, fund.Holdings{"A": 1})
			Expect(res.Status).To(Equal(fund.StatusNotComputable))
			Expect(res.PriceDelta).To(BeEmpty())
			Expect(res.PriceImpact).To(BeEmpty())
			Expect(res.Contribution).To(BeEmpty())
		})

		It("flags a zero total prior value", func() {
			pm := newestFirst([]string{"A", "B"}, []float64{11, 10}, []float64{6, 5})
			res := attribution.Compute(pm, fund.Holdings{"A": 0, "B": 0})
			Expect(res.Status).To(Equal(fund.StatusDegenerateDenominator))
			Expect(res.PriceDelta).To(BeEmpty())
			Expect(res.PriceImpact).To(BeEmpty())
			Expect(res.Contribution).To(BeEmpty())
			Expect(res.Top(5)).To(BeEmpty())
		})

		It("signals when no holding is priced", func() {
			pm := newestFirst([]string{"A"}, []float64{11, 10})
			res := attribution.Compute(pm, fund.Holdings{"Z": 1})
			Expect(res.Status).To(Equal(fund.StatusNoSelection))
			Expect(res.Missing).To(Equal([]string{"Z"}))
		})
	})

	Context("with partial coverage", func() {
		It("excludes instruments missing from either table", func() {
			pm := newestFirst([]string{"A", "B", "C"},
				[]float64{11, 10},
				[]float64{21, 20},
				[]float64{5, math.NaN()},
			)
			res := attribution.Compute(pm, fund.Holdings{"A": 1, "C": 1, "Z": 3})
			Expect(res.Status).To(Equal(fund.StatusOK))
			Expect(res.Instruments).To(Equal([]string{"A"}))
			Expect(res.Missing).To(ConsistOf("C", "Z"))
			Expect(res.Contribution["A"]).To(BeNumerically("~", 0.1, 1e-12))
		})
	})

	Context("when ranking", func() {
		var res *attribution.Result

		BeforeEach(func() {
			pm := newestFirst([]string{"UP", "DOWN", "FLAT", "TIE", "BIG"},
				[]float64{102, 100},
				[]float64{90, 100},
				[]float64{100, 100},
				[]float64{98, 100},
				[]float64{105, 100},
			)
			res = attribution.Compute(pm, fund.Holdings{"UP": 1, "DOWN": 1, "FLAT": 1, "TIE": 1, "BIG": 1})
		})

		It("ranks by absolute contribution and keeps the sign", func() {
			top := res.Top(3)
			Expect(top).To(HaveLen(3))
			Expect(top[0].Instrument).To(Equal("DOWN"))
			Expect(top[0].Contribution).To(BeNumerically("<", 0))
			Expect(top[1].Instrument).To(Equal("BIG"))
			// UP and TIE share |contribution|; column order breaks the tie
			Expect(top[2].Instrument).To(Equal("UP"))
		})

		It("returns everything when n exceeds the holdings", func() {
			Expect(res.Top(10)).To(HaveLen(5))
		})

		It("lists gainers and losers by price delta", func() {
			gainers := res.Gainers(5)
			Expect(gainers).To(HaveLen(2))
			Expect(gainers[0].Instrument).To(Equal("BIG"))
			losers := res.Losers(1)
			Expect(losers).To(HaveLen(1))
			Expect(losers[0].Instrument).To(Equal("DOWN"))
		})

		It("summarizes contribution signs", func() {
			stats := res.Stats()
			Expect(stats.Positive).To(Equal(2))
			Expect(stats.Negative).To(Equal(2))
			Expect(stats.Total).To(BeNumerically("~", res.TotalContribution(), 1e-12))
			Expect(stats.Mean).To(BeNumerically("~", stats.Total/5, 1e-12))
		})

		DescribeTable("filters",
			func(filter attribution.Filter, expected []string) {
				names := []string{}
				for _, e := range res.Filter(filter) {
					names = append(names, e.Instrument)
				}
				Expect(names).To(Equal(expected))
			},
			Entry("all", attribution.FilterAll, []string{"BIG", "UP", "FLAT", "TIE", "DOWN"}),
			Entry("positive", attribution.FilterPositive, []string{"BIG", "UP"}),
			Entry("negative", attribution.FilterNegative, []string{"TIE", "DOWN"}),
			Entry("top contribution", attribution.FilterTopContribution, []string{"BIG", "UP", "FLAT", "TIE", "DOWN"}),
		)

		It("searches identifiers and display names", func() {
			Expect(res.Search("bi", nil)).To(HaveLen(1))
			found := res.Search("hynix", map[string]string{"TIE": "SK Hynix"})
			Expect(found).To(HaveLen(1))
			Expect(found[0].Instrument).To(Equal("TIE"))
		})

		It("reports movers past the threshold", func() {
			movers := res.Movers(0.02)
			Expect(movers.Up).To(HaveLen(2))
			Expect(movers.Up[0].Instrument).To(Equal("BIG"))
			Expect(movers.Down).To(HaveLen(2))
			Expect(movers.Down[0].Instrument).To(Equal("DOWN"))
		})

		It("returns drivers in the direction of the total impact", func() {
			// total impact: 2 - 10 + 0 - 2 + 5 = -5
			drivers := res.Drivers(5)
			Expect(drivers).To(HaveLen(2))
			Expect(drivers[0].Instrument).To(Equal("DOWN"))
			Expect(drivers[1].Instrument).To(Equal("TIE"))
		})

		It("rolls contributions up by sector", func() {
			rollup := res.BySector(map[string]string{"UP": "Tech", "BIG": "Tech", "DOWN": "Energy"})
			Expect(rollup).To(HaveLen(3))
			Expect(rollup[0].Sector).To(Equal("Tech"))
			Expect(rollup[0].Holdings).To(Equal(2))

			total := 0.0
			for _, r := range rollup {
				total += r.Contribution
			}
			Expect(total).To(BeNumerically("~", res.TotalContribution(), 1e-12))
		})
	})
})
