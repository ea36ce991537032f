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

package report_test

import (
	"bytes"
	"context"
	"math"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tealeg/xlsx/v3"

	"github.com/penny-vault/fund-monitor/attribution"
	"github.com/penny-vault/fund-monitor/catalog"
	"github.com/penny-vault/fund-monitor/chart"
	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/compare"
	"github.com/penny-vault/fund-monitor/dataframe"
	"github.com/penny-vault/fund-monitor/fund"
	"github.com/penny-vault/fund-monitor/report"
	"github.com/penny-vault/fund-monitor/spreadsheet"
	"github.com/penny-vault/fund-monitor/tradecron"
)

var _ = Describe("Report", func() {
	var (
		tz   *time.Location
		ms   *tradecron.MarketStatus
		wb   *spreadsheet.Workbook
		now  time.Time
		opts report.Options
	)

	day := func(d int) time.Time {
		return time.Date(2024, 7, d, 0, 0, 0, 0, tz)
	}

	BeforeEach(func() {
		tz = common.GetTimezone()
		Expect(tradecron.LoadMarketHolidays(tradecron.DefaultHolidays)).To(Succeed())
		ms = tradecron.NewMarketStatus(&tradecron.RegularHours)
		now = time.Date(2024, 7, 9, 17, 0, 0, 0, tz)
		opts = report.DefaultOptions()

		prices, err := dataframe.New(
			[]time.Time{day(3), day(5), day(8), day(9)},
			[]string{"A", "B"},
			[][]float64{
				{100, 100, 100, 110},
				{50, 50, 50, 47.5},
			})
		Expect(err).To(BeNil())

		navs, err := dataframe.New(
			[]time.Time{day(8), day(9)},
			[]string{"AGIX"},
			[][]float64{{100, 105}})
		Expect(err).To(BeNil())

		wb = &spreadsheet.Workbook{
			Prices: prices,
			Holdings: &fund.HoldingsTable{
				Instruments: []string{"A", "B"},
				Columns:     []string{"Current"},
				Vals:        [][]float64{{1, 2}},
			},
			Sectors: map[string]string{"A": "Technology"},
			NAV:     navs,
		}
	})

	build := func() *report.Report {
		rpt, err := report.Build(context.Background(), wb, catalog.Default(), ms, now, opts)
		Expect(err).To(BeNil())
		return rpt
	}

	Context("with prices, holdings and NAVs", func() {
		It("dates the report by the newest price and closed session", func() {
			rpt := build()
			Expect(rpt.AsOf).To(Equal(day(9)))
			Expect(rpt.LatestSession).To(Equal(day(9)))
			Expect(rpt.Instruments).To(Equal([]string{"A", "B"}))
			Expect(rpt.Names).To(Equal(map[string]string{"A": "A", "B": "B"}))
		})

		It("computes point returns", func() {
			rpt := build()
			v, ok := rpt.Returns.Get("1d", "A")
			Expect(ok).To(BeTrue())
			Expect(v).To(BeNumerically("~", 0.10, 1e-12))

			v, ok = rpt.Returns.Get("1d", "B")
			Expect(ok).To(BeTrue())
			Expect(v).To(BeNumerically("~", -0.05, 1e-12))
		})

		It("attributes the daily return to each holding", func() {
			rpt := build()
			att := rpt.Attribution.Table
			Expect(att.Status).To(Equal(fund.StatusOK))
			Expect(att.TotalPriorValue).To(BeNumerically("~", 200, 1e-9))
			Expect(att.Contribution["A"]).To(BeNumerically("~", 0.05, 1e-12))
			Expect(att.Contribution["B"]).To(BeNumerically("~", -0.025, 1e-12))

			Expect(rpt.Attribution.Gainers).To(HaveLen(1))
			Expect(rpt.Attribution.Gainers[0].Instrument).To(Equal("A"))
			Expect(rpt.Attribution.Losers).To(HaveLen(1))
			Expect(rpt.Attribution.Losers[0].Instrument).To(Equal("B"))
			Expect(rpt.Attribution.Stats.Positive).To(Equal(1))
			Expect(rpt.Attribution.Stats.Negative).To(Equal(1))
		})

		It("matches the fund daily return to the total contribution", func() {
			rpt := build()
			Expect(rpt.Fund.Value).To(BeNumerically("~", 205, 1e-9))
			Expect(rpt.Fund.DailyReturn).To(BeNumerically("~", 0.025, 1e-12))
			Expect(rpt.Fund.DailyReturn).To(BeNumerically("~", rpt.Attribution.Table.TotalContribution(), 1e-12))
			Expect(rpt.Fund.Status).To(Equal(fund.StatusOK))
			Expect(rpt.Fund.AnnualizedStatus).To(Equal(fund.StatusInsufficientData))
		})

		It("rolls contributions up by sector from the workbook", func() {
			rpt := build()
			Expect(rpt.Attribution.Sectors).To(HaveLen(2))
			Expect(rpt.Attribution.Sectors[0].Sector).To(Equal("Technology"))
			Expect(rpt.Attribution.Sectors[1].Sector).To(Equal(attribution.UnclassifiedSector))
		})

		It("allocates holdings by latest value", func() {
			rpt := build()
			Expect(rpt.Allocation.ValueStatus).To(Equal(fund.StatusOK))
			Expect(rpt.Allocation.ByValue).To(HaveLen(2))
			Expect(rpt.Allocation.ByValue[0].Sector).To(Equal("Technology"))
			Expect(rpt.Allocation.ByValue[0].Weight).To(BeNumerically("~", 110.0/205.0, 1e-12))
			Expect(rpt.Allocation.ByCount).To(HaveLen(2))
		})

		It("compares fund NAVs through the latest session", func() {
			rpt := build()
			Expect(rpt.Comparison).NotTo(BeNil())
			Expect(rpt.Comparison.Stale).To(BeFalse())
			v, ok := rpt.Comparison.Get("AGIX", compare.DTD)
			Expect(ok).To(BeTrue())
			Expect(v).To(BeNumerically("~", 5.0, 1e-9))
		})

		It("computes risk for every instrument", func() {
			rpt := build()
			Expect(rpt.Risk.Status).To(Equal(fund.StatusOK))
			Expect(rpt.Risk.Instruments).To(ConsistOf("A", "B"))
		})

		It("encodes to JSON with undefined values as null", func() {
			rpt := build()
			data, err := rpt.JSON()
			Expect(err).To(BeNil())

			var decoded map[string]interface{}
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
			Expect(decoded["id"]).To(Equal(rpt.ID.String()))
			summary := decoded["fund"].(map[string]interface{})
			Expect(summary["annualized"]).To(BeNil())
			Expect(summary["value"]).To(BeNumerically("~", 205, 1e-9))
		})

		It("renders text tables", func() {
			text := build().Text()
			Expect(text).To(ContainSubstring("Attribution 2024-07-09 vs 2024-07-08"))
			Expect(text).To(ContainSubstring("Technology"))
			Expect(text).To(ContainSubstring("AGIX"))
		})

		It("exports every table to a workbook", func() {
			rpt := build()
			exp := spreadsheet.NewExporter()
			Expect(rpt.Export(exp)).To(Succeed())

			var buf bytes.Buffer
			Expect(exp.Write(&buf)).To(Succeed())

			file, err := xlsx.OpenBinary(buf.Bytes())
			Expect(err).To(BeNil())
			for _, name := range []string{"Returns", "Cumulative", "Attribution", "Sectors", "Risk", "Allocation", "Comparison", "Growth"} {
				Expect(file.Sheet).To(HaveKey(name))
			}

			sheets := spreadsheet.DefaultOptions()
			sheets.PriceSheet = "Growth"
			sheets.HoldingsSheet = "none"
			sheets.NAVSheet = "none"
			loaded, err := spreadsheet.LoadBinary(buf.Bytes(), sheets)
			Expect(err).To(BeNil())
			Expect(loaded.Prices.ColNames).To(Equal([]string{"AGIX"}))
			Expect(loaded.Prices.Dates).To(Equal([]time.Time{day(8), day(9)}))
		})

		DescribeTable("renders charts",
			func(name, variant string) {
				img, err := build().Chart(name, variant, chart.DefaultOptions())
				Expect(err).To(BeNil())
				Expect(img[:4]).To(Equal([]byte{0x89, 'P', 'N', 'G'}))
			},
			Entry("contribution", report.ChartContribution, ""),
			Entry("drawdown", report.ChartDrawdown, ""),
			Entry("sectors by value", report.ChartSectors, ""),
			Entry("sectors by count", report.ChartSectors, report.SectorsByCount),
			Entry("growth", report.ChartGrowth, ""),
		)

		It("rejects unknown charts", func() {
			_, err := build().Chart("candles", "", chart.DefaultOptions())
			Expect(err).To(MatchError(report.ErrUnknownChart))
		})
	})

	Context("without holdings", func() {
		BeforeEach(func() {
			wb.Holdings = nil
			wb.NAV = nil
		})

		It("reports no selection for holding based analytics", func() {
			rpt := build()
			Expect(rpt.Attribution.Table.Status).To(Equal(fund.StatusNoSelection))
			Expect(rpt.Fund.Status).To(Equal(fund.StatusNoSelection))
			Expect(math.IsNaN(rpt.Fund.Value)).To(BeTrue())
			Expect(rpt.Comparison).To(BeNil())

			_, ok := rpt.Returns.Get("1d", "A")
			Expect(ok).To(BeTrue())
		})

		It("has nothing to chart for contribution", func() {
			_, err := build().Chart(report.ChartContribution, "", chart.DefaultOptions())
			Expect(err).To(MatchError(chart.ErrNoData))
		})
	})

	Context("with malformed prices", func() {
		It("returns an error", func() {
			wb.Prices.Vals[0][1] = -1
			_, err := report.Build(context.Background(), wb, catalog.Default(), ms, now, opts)
			Expect(err).To(MatchError(fund.ErrMalformedInput))
		})
	})
})
