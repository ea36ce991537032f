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

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/penny-vault/fund-monitor/catalog"
	"github.com/penny-vault/fund-monitor/chart"
	"github.com/penny-vault/fund-monitor/report"
	"github.com/penny-vault/fund-monitor/spreadsheet"
	"github.com/penny-vault/fund-monitor/tradecron"
)

func sheetOptions() spreadsheet.Options {
	opts := spreadsheet.DefaultOptions()
	if err := viper.UnmarshalKey("workbook", &opts); err != nil {
		log.Fatal().Err(err).Msg("invalid workbook settings")
	}
	return opts
}

func chartOptions() chart.Options {
	opts := chart.DefaultOptions()
	if err := viper.UnmarshalKey("chart", &opts); err != nil {
		log.Fatal().Err(err).Msg("invalid chart settings")
	}
	return opts
}

func reportOptions() report.Options {
	opts := report.DefaultOptions()
	opts.SharesColumn = viper.GetString("holdings.shares_column")
	opts.Offsets = viper.GetIntSlice("returns.offsets")
	opts.CumulativeOffsets = viper.GetIntSlice("returns.cumulative_offsets")
	opts.AnchorYears = viper.GetIntSlice("returns.anchors")
	opts.FallbackWindow = viper.GetInt("returns.fallback_window")
	opts.TopN = viper.GetInt("attribution.top_n")
	opts.MoverThreshold = viper.GetFloat64("attribution.mover_threshold")
	opts.CompareSinceYear = viper.GetInt("compare.since_year")
	if err := viper.UnmarshalKey("risk", &opts.Risk); err != nil {
		log.Fatal().Err(err).Msg("invalid risk settings")
	}
	return opts
}

func loadCatalog() *catalog.Catalog {
	fn := viper.GetString("catalog.path")
	if fn == "" {
		return catalog.Default()
	}

	cat, err := catalog.Load(fn)
	if err != nil {
		log.Fatal().Err(err).Str("FileName", fn).Msg("could not load catalog")
	}
	return cat
}

func marketStatus() *tradecron.MarketStatus {
	return tradecron.NewMarketStatus(&tradecron.RegularHours)
}

// loadWorkbook reads the workbook at fn. A .csv file supplies prices only.
func loadWorkbook(ctx context.Context, fn string, sheets spreadsheet.Options) (*spreadsheet.Workbook, error) {
	if fn == "" {
		return nil, fmt.Errorf("no workbook given; use --workbook or workbook.path")
	}

	if strings.EqualFold(filepath.Ext(fn), ".csv") {
		fh, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer fh.Close()

		prices, err := spreadsheet.LoadCSV(ctx, fh)
		if err != nil {
			return nil, err
		}
		return &spreadsheet.Workbook{Prices: prices}, nil
	}

	return spreadsheet.Load(fn, sheets)
}

// buildReport loads the workbook and computes the report, exiting on failure
func buildReport(ctx context.Context) *report.Report {
	wb, err := loadWorkbook(ctx, viper.GetString("workbook.path"), sheetOptions())
	if err != nil {
		log.Fatal().Err(err).Str("FileName", viper.GetString("workbook.path")).Msg("could not load workbook")
	}

	rpt, err := report.Build(ctx, wb, loadCatalog(), marketStatus(), time.Now(), reportOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("could not build report")
	}
	return rpt
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not encode JSON")
	}
	fmt.Println(string(data))
}
