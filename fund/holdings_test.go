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

package fund_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/fund-monitor/fund"
)

var _ = Describe("Holdings", func() {
	Context("when reading a holdings table", func() {
		var table *fund.HoldingsTable

		BeforeEach(func() {
			table = &fund.HoldingsTable{
				Instruments: []string{"A", "B", "C"},
				Columns:     []string{"Prior", "Current"},
				Vals: [][]float64{
					{1, 3, 5},
					{2, 4, math.NaN()},
				},
			}
		})

		It("uses the second column by default", func() {
			h, err := table.Holdings(fund.DefaultSharesColumn)
			Expect(err).To(BeNil())
			Expect(h).To(Equal(fund.Holdings{"A": 2, "B": 4}))
		})

		It("uses an explicitly named column", func() {
			h, err := table.Holdings("Prior")
			Expect(err).To(BeNil())
			Expect(h).To(Equal(fund.Holdings{"A": 1, "B": 3, "C": 5}))
		})

		It("uses the only column when there is one", func() {
			table.Columns = table.Columns[:1]
			table.Vals = table.Vals[:1]
			h, err := table.Holdings(fund.DefaultSharesColumn)
			Expect(err).To(BeNil())
			Expect(h).To(HaveKeyWithValue("C", 5.0))
		})

		It("fails on an unknown column", func() {
			_, err := table.Holdings("Shares")
			Expect(errors.Is(err, fund.ErrUnknownColumn)).To(BeTrue())
		})

		It("fails on negative shares", func() {
			table.Vals[1][0] = -2
			_, err := table.Holdings(fund.DefaultSharesColumn)
			Expect(errors.Is(err, fund.ErrInvalidShares)).To(BeTrue())
		})
	})

	Context("when comparing against a price matrix", func() {
		It("splits priced and missing instruments", func() {
			pm, err := fund.NewPriceMatrix(
				[]time.Time{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
				[]string{"B", "A"},
				[][]float64{{1}, {2}},
			)
			Expect(err).To(BeNil())

			priced, missing := fund.Holdings{"A": 1, "B": 1, "Z": 1}.Coverage(pm)
			Expect(priced).To(Equal([]string{"B", "A"}))
			Expect(missing).To(Equal([]string{"Z"}))
		})
	})

	Context("when valuing the fund", func() {
		It("weights prices by shares", func() {
			pm, err := fund.NewPriceMatrix(
				[]time.Time{
					time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
				},
				[]string{"A", "B"},
				[][]float64{{90, 100, 110}, {45, 50, 55}},
			)
			Expect(err).To(BeNil())

			vs := fund.Value(pm, fund.Holdings{"A": 2, "B": 4, "Z": 10})
			Expect(vs.Values).To(Equal([]float64{440, 400, 360}))
			Expect(vs.DailyReturn()).To(BeNumerically("~", 0.10, 1e-12))

			dates, values := vs.Ascending()
			Expect(values).To(Equal([]float64{360, 400, 440}))
			Expect(dates[0]).To(Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
			Expect(vs.Values[0]).To(Equal(440.0))
		})
	})
})
