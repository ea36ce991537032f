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
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/fund-monitor/report"
	"github.com/penny-vault/fund-monitor/spreadsheet"
)

var (
	chartOutput  string
	chartVariant string
	exportOutput string
)

func init() {
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "PNG file to write (default <name>.png)")
	chartCmd.Flags().StringVar(&chartVariant, "variant", "", "anchor label for cumulative, count or value for sectors")
	rootCmd.AddCommand(chartCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "fund-report.xlsx", "xlsx file to write")
	rootCmd.AddCommand(exportCmd)
}

var chartCmd = &cobra.Command{
	Use:       "chart <name>",
	Short:     "Render a chart as PNG",
	Long:      fmt.Sprintf("Render a chart as PNG. Available charts: %s", strings.Join(report.ChartNames(), ", ")),
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: report.ChartNames(),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		rpt := buildReport(context.Background())

		img, err := rpt.Chart(name, chartVariant, chartOptions())
		if err != nil {
			log.Fatal().Err(err).Str("Chart", name).Msg("could not render chart")
		}

		fn := chartOutput
		if fn == "" {
			fn = name + ".png"
		}
		if err := os.WriteFile(fn, img, 0644); err != nil {
			log.Fatal().Err(err).Str("FileName", fn).Msg("could not write chart")
		}
		log.Info().Str("FileName", fn).Int("Bytes", len(img)).Msg("wrote chart")
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every report table to an xlsx workbook",
	Run: func(cmd *cobra.Command, args []string) {
		rpt := buildReport(context.Background())

		ex := spreadsheet.NewExporter()
		if err := rpt.Export(ex); err != nil {
			log.Fatal().Err(err).Msg("could not export report")
		}
		if err := ex.Save(exportOutput); err != nil {
			log.Fatal().Err(err).Str("FileName", exportOutput).Msg("could not save export")
		}
		log.Info().Str("FileName", exportOutput).Msg("exported report")
	},
}
