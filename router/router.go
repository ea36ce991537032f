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

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/fund-monitor/handler"
)

// SetupRoutes registers the API under /v1
func SetupRoutes(app *fiber.App, h *handler.Handler) {
	api := app.Group("/v1")
	api.Get("/", handler.Ping)
	api.Get("/version", handler.Version)

	api.Get("/report", h.GetReport)
	api.Get("/report.txt", h.GetText)
	api.Get("/fund", h.GetFund)
	api.Get("/returns", h.GetReturns)
	api.Get("/attribution", h.GetAttribution)
	api.Get("/movers", h.GetMovers)
	api.Get("/risk", h.GetRisk)
	api.Get("/allocation", h.GetAllocation)
	api.Get("/compare", h.GetComparison)
	api.Get("/chart/:name", h.GetChart)
}
