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

// Package returns computes point and cumulative returns from a PriceMatrix.
// Returns are measured in trading rows, not calendar days: an offset of 5 is
// the price five rows older than the most recent row.
package returns

import (
	"fmt"

	"github.com/penny-vault/fund-monitor/fund"
)

var (
	// DefaultOffsets are the point return periods shown on the overview
	DefaultOffsets = []int{1, 5, 30, 90, 252}

	// DefaultCumulativeOffsets are the cumulative return periods charted
	DefaultCumulativeOffsets = []int{30, 90, 180, 252}
)

// Result maps a period label to per-instrument returns. Periods that could not
// be computed are absent from Periods and Labels.
type Result struct {
	Status  fund.Status                   `json:"status"`
	Labels  []string                      `json:"labels"`
	Periods map[string]map[string]float64 `json:"periods"`
}

// Label returns the period label for a row offset, e.g. "30d"
func Label(offset int) string {
	return fmt.Sprintf("%dd", offset)
}

// Get returns the return for a period and instrument
func (r *Result) Get(label, instrument string) (float64, bool) {
	period, ok := r.Periods[label]
	if !ok {
		return 0, false
	}
	v, ok := period[instrument]
	return v, ok
}

func (r *Result) add(label string, vals map[string]float64) {
	r.Labels = append(r.Labels, label)
	r.Periods[label] = vals
}

func newResult() *Result {
	return &Result{
		Status:  fund.StatusInsufficientData,
		Labels:  []string{},
		Periods: make(map[string]map[string]float64),
	}
}

// Compute returns (p[0] - p[k]) / p[k] for every instrument and offset k. An
// offset is omitted when the matrix does not have more than k rows; an
// instrument is omitted from a period when either price is missing. Repeated
// offsets are computed once.
func Compute(pm *fund.PriceMatrix, offsets []int) *Result {
	return compute(pm, offsets, 1)
}

// CumulativeByOffset is Compute expressed in percent
func CumulativeByOffset(pm *fund.PriceMatrix, offsets []int) *Result {
	return compute(pm, offsets, 100)
}

func compute(pm *fund.PriceMatrix, offsets []int, scale float64) *Result {
	res := newResult()

	instruments := pm.Instruments()
	if len(instruments) == 0 {
		res.Status = fund.StatusNoSelection
		return res
	}

	for _, offset := range offsets {
		if offset < 1 || pm.Len() <= offset {
			continue
		}
		if _, seen := res.Periods[Label(offset)]; seen {
			continue
		}

		vals := make(map[string]float64, len(instruments))
		for _, instrument := range instruments {
			current, ok := pm.Price(0, instrument)
			if !ok {
				continue
			}
			base, ok := pm.Price(offset, instrument)
			if !ok || base == 0 {
				continue
			}
			vals[instrument] = (current - base) / base * scale
		}

		if len(vals) > 0 {
			res.add(Label(offset), vals)
		}
	}

	if len(res.Labels) > 0 {
		res.Status = fund.StatusOK
	}

	return res
}
