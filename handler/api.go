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
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/penny-vault/fund-monitor/chart"
	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/fund"
	"github.com/penny-vault/fund-monitor/observability/opentelemetry"
	"github.com/penny-vault/fund-monitor/report"
)

// maxRange is the most rows a single ranged request may return
const maxRange = 100

var rangeRegex = regexp.MustCompile(`((\w+)=)?(\d+)-(\d+)`)

// Source provides the current report and caches output rendered from it
type Source interface {
	Report(ctx context.Context) (*report.Report, error)
	Rendered(ctx context.Context, name string, render func(*report.Report) ([]byte, error)) ([]byte, error)
}

// Handler serves the fund monitor API from a report Source
type Handler struct {
	source Source
	charts chart.Options
}

// New creates a Handler
func New(source Source, charts chart.Options) *Handler {
	return &Handler{
		source: source,
		charts: charts,
	}
}

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

// Ping reports that the server is alive
func Ping(c *fiber.Ctx) error {
	return c.JSON(PingResponse{
		Status:  "success",
		Message: "API is alive",
		Time:    time.Now().Format(time.RFC3339Nano),
	})
}

// Version returns build information
func Version(c *fiber.Ctx) error {
	return c.JSON(common.GetBuildInfo())
}

// report fetches the current report within a span named for the endpoint
func (h *Handler) report(c *fiber.Ctx, endpoint string) (*report.Report, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), endpoint)
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	rpt, err := h.source.Report(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, h.fail(endpoint, err)
	}
	return rpt, nil
}

// fail maps an error onto an HTTP error
func (h *Handler) fail(endpoint string, err error) error {
	switch {
	case errors.Is(err, fund.ErrMalformedInput):
		log.Warn().Err(err).Str("Endpoint", endpoint).Msg("workbook is malformed")
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chart.ErrNoData), errors.Is(err, report.ErrUnknownChart):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		log.Error().Stack().Err(err).Str("Endpoint", endpoint).Msg("could not build report")
		return fiber.ErrInternalServerError
	}
}

// parseRange parses a Range header of the form `items=0-9` into a limit and
// offset. An empty header selects everything.
func parseRange(r string) (int, int, error) {
	if r == "" {
		return maxRange, 0, nil
	}

	res := rangeRegex.FindStringSubmatch(r)
	if res == nil {
		return 0, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	if res[2] != "" && res[2] != "items" {
		return 0, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	begin, err := strconv.ParseInt(res[3], 10, 32)
	if err != nil {
		log.Error().Err(err).Msg("could not parse range begin")
		return 0, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	end, err := strconv.ParseInt(res[4], 10, 32)
	if err != nil {
		log.Error().Err(err).Msg("could not parse range end")
		return 0, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	if end < begin {
		log.Warn().Int64("Begin", begin).Int64("End", end).Msg("range error: end < begin")
		return 0, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	limit := int(end - begin + 1)
	if limit > maxRange {
		return 0, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	return limit, int(begin), nil
}

// page slices items per limit and offset
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
