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

package compare_test

import (
	"math"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/compare"
	"github.com/penny-vault/fund-monitor/dataframe"
	"github.com/penny-vault/fund-monitor/fund"
	"github.com/penny-vault/fund-monitor/tradecron"
)

var _ = Describe("Compare", func() {
	var (
		tz      *time.Location
		ms      *tradecron.MarketStatus
		navs    *dataframe.DataFrame
		latest  time.Time
		periods []compare.Period
	)

	day := func(m time.Month, d int) time.Time {
		return time.Date(2024, m, d, 0, 0, 0, 0, tz)
	}

	BeforeEach(func() {
		var err error
		tz = common.GetTimezone()
		Expect(tradecron.LoadMarketHolidays(tradecron.DefaultHolidays)).To(Succeed())
		ms = tradecron.NewMarketStatus(&tradecron.RegularHours)

		nan := math.NaN()
		navs, err = dataframe.New(
			[]time.Time{day(6, 28), day(7, 1), day(7, 2), day(7, 3), day(7, 5), day(7, 8), day(7, 9), day(7, 10)},
			[]string{"AGIX", "PEER"},
			[][]float64{
				{100, 101, 102, 103, 104, 105, 110.25, nan},
				{nan, nan, 50, 50, 50, 50, 55, nan},
			})
		Expect(err).To(BeNil())

		latest = day(7, 9)
		periods = compare.Periods(ms, latest, 2024)
	})

	Context("when building periods", func() {
		It("bases period-to-date windows on the prior close", func() {
			Expect(periods).To(HaveLen(6))
			Expect(periods[0]).To(Equal(compare.Period{Label: compare.DTD, Base: day(7, 8)}))
			Expect(periods[1]).To(Equal(compare.Period{Label: compare.WTD, Base: day(7, 5)}))
			Expect(periods[2]).To(Equal(compare.Period{Label: compare.MTD, Base: day(6, 28)}))
			Expect(periods[3].Label).To(Equal(compare.YTD))
			Expect(periods[3].Base).To(Equal(time.Date(2023, 12, 29, 0, 0, 0, 0, tz)))
			Expect(periods[4].Label).To(Equal("since2024"))
			Expect(periods[5].Label).To(Equal(compare.SinceLaunch))
		})

		It("omits the since-year window when no year is given", func() {
			Expect(compare.Periods(ms, latest, 0)).To(HaveLen(5))
		})
	})

	Context("with two funds", func() {
		It("computes every period for a fund with full history", func() {
			res, err := compare.Compute(navs, latest, periods)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(fund.StatusOK))
			Expect(res.AsOf).To(Equal(day(7, 9)))
			Expect(res.Stale).To(BeFalse())

			dtd, ok := res.Get("AGIX", compare.DTD)
			Expect(ok).To(BeTrue())
			Expect(dtd).To(BeNumerically("~", 5.0, 1e-9))

			wtd, _ := res.Get("AGIX", compare.WTD)
			Expect(wtd).To(BeNumerically("~", (110.25-104)/104*100, 1e-9))

			mtd, _ := res.Get("AGIX", compare.MTD)
			Expect(mtd).To(BeNumerically("~", 10.25, 1e-9))

			launch, _ := res.Get("AGIX", compare.SinceLaunch)
			Expect(launch).To(BeNumerically("~", 10.25, 1e-9))
		})

		It("measures a late launching fund from its first NAV", func() {
			res, err := compare.Compute(navs, latest, periods)
			Expect(err).To(BeNil())
			Expect(res.Entries[1].Fund).To(Equal("PEER"))
			Expect(res.Entries[1].Launch).To(Equal(day(7, 2)))

			for _, label := range []string{compare.DTD, compare.WTD, compare.MTD, compare.YTD, "since2024", compare.SinceLaunch} {
				v, ok := res.Get("PEER", label)
				Expect(ok).To(BeTrue(), label)
				Expect(v).To(BeNumerically("~", 10.0, 1e-9), label)
			}
		})

		It("rebases growth to 100 on the first common date", func() {
			res, err := compare.Compute(navs, latest, periods)
			Expect(err).To(BeNil())
			Expect(res.Growth.Start()).To(Equal(day(7, 2)))

			agix, ok := res.Growth.Column("AGIX")
			Expect(ok).To(BeTrue())
			Expect(agix[0]).To(BeNumerically("~", 100, 1e-9))
			Expect(agix[len(agix)-1]).To(BeNumerically("~", 110.25/102*100, 1e-9))

			peer, _ := res.Growth.Column("PEER")
			Expect(peer[len(peer)-1]).To(BeNumerically("~", 110, 1e-9))
		})

		It("flags stale data when the latest session is missing", func() {
			res, err := compare.Compute(navs, day(7, 10), compare.Periods(ms, day(7, 10), 2024))
			Expect(err).To(BeNil())
			Expect(res.AsOf).To(Equal(day(7, 9)))
			Expect(res.Stale).To(BeTrue())

			_, ok := res.Get("AGIX", compare.DTD)
			Expect(ok).To(BeFalse())
		})

		It("ignores rows after the latest session", func() {
			res, err := compare.Compute(navs, day(7, 8), compare.Periods(ms, day(7, 8), 2024))
			Expect(err).To(BeNil())
			Expect(res.AsOf).To(Equal(day(7, 8)))

			dtd, _ := res.Get("AGIX", compare.DTD)
			Expect(dtd).To(BeNumerically("~", (105.0-104)/104*100, 1e-9))
		})

		It("encodes missing returns as null", func() {
			res, err := compare.Compute(navs, day(7, 10), compare.Periods(ms, day(7, 10), 2024))
			Expect(err).To(BeNil())

			data, err := json.Marshal(res.Entries[0])
			Expect(err).To(BeNil())
			Expect(string(data)).To(ContainSubstring(`"DTD":null`))
		})
	})

	Context("with bad input", func() {
		It("reports no selection for an empty frame", func() {
			empty, err := dataframe.New([]time.Time{}, []string{}, [][]float64{})
			Expect(err).To(BeNil())

			res, err := compare.Compute(empty, latest, periods)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(fund.StatusNoSelection))
		})

		It("reports insufficient data for a single session", func() {
			single, err := dataframe.New([]time.Time{day(7, 9)}, []string{"AGIX"}, [][]float64{{100}})
			Expect(err).To(BeNil())

			res, err := compare.Compute(single, latest, periods)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(fund.StatusInsufficientData))
		})

		It("rejects a negative NAV", func() {
			bad, err := dataframe.New([]time.Time{day(7, 8), day(7, 9)}, []string{"AGIX"}, [][]float64{{100, -1}})
			Expect(err).To(BeNil())

			_, err = compare.Compute(bad, latest, periods)
			Expect(err).To(MatchError(fund.ErrMalformedInput))
		})

		It("requires at least one period", func() {
			_, err := compare.Compute(navs, latest, nil)
			Expect(err).To(MatchError(compare.ErrNoPeriods))
		})
	})
})
