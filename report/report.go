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

// Package report assembles every analytic for one workbook snapshot
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/fund-monitor/attribution"
	"github.com/penny-vault/fund-monitor/catalog"
	"github.com/penny-vault/fund-monitor/compare"
	"github.com/penny-vault/fund-monitor/fund"
	"github.com/penny-vault/fund-monitor/observability/opentelemetry"
	"github.com/penny-vault/fund-monitor/returns"
	"github.com/penny-vault/fund-monitor/risk"
	"github.com/penny-vault/fund-monitor/spreadsheet"
	"github.com/penny-vault/fund-monitor/tradecron"
)

// TopCumulativeCount is the number of instruments in the default cumulative
// return selection
const TopCumulativeCount = 10

// Options controls every computation in the report
type Options struct {
	SharesColumn      string       `mapstructure:"shares_column"`
	Offsets           []int        `mapstructure:"offsets"`
	CumulativeOffsets []int        `mapstructure:"cumulative_offsets"`
	AnchorYears       []int        `mapstructure:"anchors"`
	FallbackWindow    int          `mapstructure:"fallback_window"`
	Risk              risk.Options `mapstructure:"risk"`
	TopN              int          `mapstructure:"top_n"`
	MoverThreshold    float64      `mapstructure:"mover_threshold"`
	CompareSinceYear  int          `mapstructure:"compare_since_year"`
}

// DefaultOptions mirrors the defaults of the individual calculators
func DefaultOptions() Options {
	return Options{
		SharesColumn:      fund.DefaultSharesColumn,
		Offsets:           returns.DefaultOffsets,
		CumulativeOffsets: returns.DefaultCumulativeOffsets,
		AnchorYears:       []int{2024, 2025},
		Risk:              risk.DefaultOptions(),
		TopN:              5,
		MoverThreshold:    0.02,
		CompareSinceYear:  2024,
	}
}

// Anchors converts the configured years into cumulative return anchors
func (o Options) Anchors() []returns.Anchor {
	anchors := make([]returns.Anchor, len(o.AnchorYears))
	for idx, year := range o.AnchorYears {
		anchors[idx] = returns.YearAnchor(year)
	}
	return anchors
}

// FundSummary describes the share-weighted fund as a whole
type FundSummary struct {
	Status           fund.Status
	Value            float64
	DailyReturn      float64
	Annualized       float64
	AnnualizedStatus fund.Status
	Risk             risk.Metrics
	Drawdown         *risk.Drawdown
}

// AttributionSummary is the attribution table with its ranked views
type AttributionSummary struct {
	Table   *attribution.Result        `json:"table"`
	Top     []attribution.Entry        `json:"top"`
	Gainers []attribution.Entry        `json:"gainers"`
	Losers  []attribution.Entry        `json:"losers"`
	Drivers []attribution.Entry        `json:"drivers"`
	Stats   attribution.Stats          `json:"stats"`
	Movers  attribution.Movers         `json:"movers"`
	Sectors []attribution.SectorRollup `json:"sectors"`
}

// Allocation is the sector split of the portfolio
type Allocation struct {
	ByCount     []catalog.Allocation `json:"by_count"`
	ByValue     []catalog.Allocation `json:"by_value"`
	ValueStatus fund.Status          `json:"value_status"`
}

// Report is the full analytics snapshot for one workbook
type Report struct {
	ID            uuid.UUID           `json:"id"`
	GeneratedAt   time.Time           `json:"generated_at"`
	AsOf          time.Time           `json:"as_of"`
	LatestSession time.Time           `json:"latest_session"`
	Instruments   []string            `json:"instruments"`
	Names         map[string]string   `json:"names"`
	Fund          *FundSummary        `json:"fund"`
	Returns       *returns.Result     `json:"returns"`
	Cumulative    *returns.Cumulative `json:"cumulative"`
	TopCumulative []string            `json:"top_cumulative"`
	Attribution   *AttributionSummary `json:"attribution"`
	Risk          *risk.Result        `json:"risk"`
	Allocation    *Allocation         `json:"allocation"`
	Comparison    *compare.Result     `json:"comparison,omitempty"`
}

// Build computes every analytic for the workbook. now determines the latest
// closed market session used by the peer comparison. An error is returned only
// for malformed workbook contents.
func Build(ctx context.Context, wb *spreadsheet.Workbook, cat *catalog.Catalog, ms *tradecron.MarketStatus, now time.Time, opts Options) (*Report, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "report.Build")
	defer span.End()

	pm, err := fund.FromDataFrame(wb.Prices)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid price sheet")
		return nil, err
	}

	holdings := fund.Holdings{}
	if wb.Holdings != nil {
		holdings, err = wb.Holdings.Holdings(opts.SharesColumn)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid holdings sheet")
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("rows", pm.Len()),
		attribute.Int("instruments", len(pm.Instruments())),
		attribute.Int("holdings", len(holdings)),
	)

	cat = cat.Clone().WithSectors(wb.Sectors)
	rpt := &Report{
		ID:            uuid.New(),
		GeneratedAt:   now,
		LatestSession: ms.LatestSession(now),
		Instruments:   pm.Instruments(),
		Names:         cat.DisplayNames(pm.Instruments()),
	}
	if pm.Len() > 0 {
		rpt.AsOf = pm.Date(0)
	}

	rpt.Returns, rpt.Cumulative, rpt.TopCumulative = buildReturns(ctx, pm, opts)
	rpt.Attribution = buildAttribution(ctx, pm, holdings, cat, opts)
	rpt.Risk = risk.Compute(pm, opts.Risk)
	rpt.Fund = buildFund(pm, holdings, opts)

	rpt.Allocation = &Allocation{ByCount: cat.AllocationByCount(holdings)}
	rpt.Allocation.ByValue, rpt.Allocation.ValueStatus = cat.AllocationByValue(pm, holdings)

	if wb.NAV != nil {
		rpt.Comparison, err = compare.Compute(wb.NAV, rpt.LatestSession, compare.Periods(ms, rpt.LatestSession, opts.CompareSinceYear))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid NAV sheet")
			return nil, err
		}
	}

	log.Info().Str("ReportID", rpt.ID.String()).Time("AsOf", rpt.AsOf).Int("Instruments", len(rpt.Instruments)).
		Str("AttributionStatus", string(rpt.Attribution.Table.Status)).Str("RiskStatus", string(rpt.Risk.Status)).
		Msg("built report")

	return rpt, nil
}

func buildReturns(ctx context.Context, pm *fund.PriceMatrix, opts Options) (*returns.Result, *returns.Cumulative, []string) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "report.buildReturns")
	defer span.End()

	point := returns.Compute(pm, opts.Offsets)
	cumulative := returns.ComputeCumulative(pm, opts.CumulativeOffsets, opts.Anchors(), returns.SinceOptions{FallbackWindow: opts.FallbackWindow})

	top := []string{}
	if len(opts.CumulativeOffsets) > 0 {
		top = cumulative.Snapshots.TopN(returns.Label(opts.CumulativeOffsets[0]), TopCumulativeCount)
	}

	return point, cumulative, top
}

func buildAttribution(ctx context.Context, pm *fund.PriceMatrix, holdings fund.Holdings, cat *catalog.Catalog, opts Options) *AttributionSummary {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "report.buildAttribution")
	defer span.End()

	res := attribution.Compute(pm, holdings)
	span.SetAttributes(attribute.String("status", string(res.Status)))

	return &AttributionSummary{
		Table:   res,
		Top:     res.Top(opts.TopN),
		Gainers: res.Gainers(opts.TopN),
		Losers:  res.Losers(opts.TopN),
		Drivers: res.Drivers(opts.TopN),
		Stats:   res.Stats(),
		Movers:  res.Movers(opts.MoverThreshold),
		Sectors: res.BySector(cat.Sectors()),
	}
}

func buildFund(pm *fund.PriceMatrix, holdings fund.Holdings, opts Options) *FundSummary {
	summary := &FundSummary{
		Value:            math.NaN(),
		DailyReturn:      math.NaN(),
		Annualized:       math.NaN(),
		AnnualizedStatus: fund.StatusNoSelection,
	}
	summary.Risk, summary.Drawdown, summary.Status = risk.ComputeFund(pm, holdings, opts.Risk)

	if priced, _ := holdings.Coverage(pm); len(priced) == 0 {
		summary.Status = fund.StatusNoSelection
		return summary
	}

	vs := fund.Value(pm, holdings)
	if vs.Len() > 0 {
		summary.Value = vs.Values[0]
	}
	summary.DailyReturn = vs.DailyReturn()
	summary.Annualized, summary.AnnualizedStatus = returns.Annualized(vs.Values)
	return summary
}

// MarshalJSON encodes NaN values as null
func (f *FundSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status           fund.Status    `json:"status"`
		Value            *float64       `json:"value"`
		DailyReturn      *float64       `json:"daily_return"`
		Annualized       *float64       `json:"annualized"`
		AnnualizedStatus fund.Status    `json:"annualized_status"`
		Risk             risk.Metrics   `json:"risk"`
		Drawdown         *risk.Drawdown `json:"drawdown"`
	}{
		Status:           f.Status,
		Value:            fund.NullableFloat(f.Value),
		DailyReturn:      fund.NullableFloat(f.DailyReturn),
		Annualized:       fund.NullableFloat(f.Annualized),
		AnnualizedStatus: f.AnnualizedStatus,
		Risk:             f.Risk,
		Drawdown:         f.Drawdown,
	})
}

// JSON encodes the report
func (r *Report) JSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report %s: %w", r.ID, err)
	}
	return data, nil
}
