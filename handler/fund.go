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

package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/fund-monitor/attribution"
	"github.com/penny-vault/fund-monitor/report"
)

// GetReport returns the full report
func (h *Handler) GetReport(c *fiber.Ctx) error {
	data, err := h.source.Rendered(c.UserContext(), "json:report", func(rpt *report.Report) ([]byte, error) {
		return rpt.JSON()
	})
	if err != nil {
		return h.fail("GetReport", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// GetText returns the report as plain text tables
func (h *Handler) GetText(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetText")
	if err != nil {
		return err
	}
	return c.SendString(rpt.Text())
}

// GetFund returns the fund level summary
func (h *Handler) GetFund(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetFund")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"as_of": rpt.AsOf,
		"fund":  rpt.Fund,
	})
}

// GetReturns returns point and cumulative returns
func (h *Handler) GetReturns(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetReturns")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"as_of":          rpt.AsOf,
		"names":          rpt.Names,
		"returns":        rpt.Returns,
		"cumulative":     rpt.Cumulative,
		"top_cumulative": rpt.TopCumulative,
	})
}

// GetAttribution returns attribution entries. The `filter` query selects a
// preset view, `q` searches identifiers and display names and the Range header
// pages through the result.
func (h *Handler) GetAttribution(c *fiber.Ctx) error {
	limit, offset, err := parseRange(c.Get(fiber.HeaderRange))
	if err != nil {
		log.Warn().Str("Range", c.Get(fiber.HeaderRange)).Msg("range header error")
		return err
	}

	rpt, err := h.report(c, "handler.GetAttribution")
	if err != nil {
		return err
	}

	res := rpt.Attribution.Table
	var entries []attribution.Entry
	if term := c.Query("q"); term != "" {
		entries = res.Search(term, rpt.Names)
	} else {
		filter := attribution.Filter(c.Query("filter", string(attribution.FilterAll)))
		switch filter {
		case attribution.FilterAll, attribution.FilterPositive, attribution.FilterNegative,
			attribution.FilterTopWeight, attribution.FilterTopContribution:
		default:
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown filter %q", filter))
		}
		entries = res.Filter(filter)
	}

	total := len(entries)
	if total > 0 && offset >= total {
		log.Warn().Int("Offset", offset).Int("Total", total).Msg("range begins past the last item")
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("items */%d", total))
		return fiber.ErrRequestedRangeNotSatisfiable
	}
	entries = page(entries, limit, offset)
	if total == 0 {
		c.Set(fiber.HeaderContentRange, "items */0")
	} else {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("items %d-%d/%d", offset, offset+len(entries)-1, total))
	}

	return c.JSON(fiber.Map{
		"status":             res.Status,
		"as_of":              res.AsOf,
		"prior":              res.Prior,
		"missing":            res.Missing,
		"total_contribution": res.TotalContribution(),
		"entries":            entries,
		"stats":              rpt.Attribution.Stats,
		"sectors":            rpt.Attribution.Sectors,
	})
}

// GetMovers returns gainers, losers, drivers and large one day moves
func (h *Handler) GetMovers(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetMovers")
	if err != nil {
		return err
	}

	res := rpt.Attribution.Table
	movers := rpt.Attribution.Movers
	if threshold := c.Query("threshold"); threshold != "" {
		val, err := strconv.ParseFloat(threshold, 64)
		if err != nil || val < 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid threshold %q", threshold))
		}
		movers = res.Movers(val)
	}

	return c.JSON(fiber.Map{
		"status":  res.Status,
		"top":     rpt.Attribution.Top,
		"gainers": rpt.Attribution.Gainers,
		"losers":  rpt.Attribution.Losers,
		"drivers": rpt.Attribution.Drivers,
		"movers":  movers,
	})
}

// GetRisk returns per-instrument and fund risk metrics
func (h *Handler) GetRisk(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetRisk")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"risk": rpt.Risk,
		"fund": rpt.Fund,
	})
}

// GetAllocation returns the sector allocation of the holdings
func (h *Handler) GetAllocation(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetAllocation")
	if err != nil {
		return err
	}
	return c.JSON(rpt.Allocation)
}

// GetComparison returns the peer NAV comparison
func (h *Handler) GetComparison(c *fiber.Ctx) error {
	rpt, err := h.report(c, "handler.GetComparison")
	if err != nil {
		return err
	}
	if rpt.Comparison == nil {
		return fiber.NewError(fiber.StatusNotFound, "workbook has no NAV sheet")
	}
	return c.JSON(rpt.Comparison)
}

// GetChart renders a chart as a PNG image
func (h *Handler) GetChart(c *fiber.Ctx) error {
	name := c.Params("name")
	variant := c.Query("variant")
	data, err := h.source.Rendered(c.UserContext(), fmt.Sprintf("chart:%s:%s", name, variant), func(rpt *report.Report) ([]byte, error) {
		return rpt.Chart(name, variant, h.charts)
	})
	if err != nil {
		return h.fail("GetChart", err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}
