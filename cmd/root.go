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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/fund-monitor/chart"
	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/observability/opentelemetry"
	"github.com/penny-vault/fund-monitor/returns"
	"github.com/penny-vault/fund-monitor/risk"
	"github.com/penny-vault/fund-monitor/tradecron"
)

var cfgFile string
var otelShutdown func(context.Context) error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is fund-monitor.toml in ., $HOME/.config or /etc)")

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", true, "Write human readable logs instead of JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Inputs
	rootCmd.PersistentFlags().StringP("workbook", "w", "", "Fund workbook (.xlsx) or price history (.csv)")
	viper.BindPFlag("workbook.path", rootCmd.PersistentFlags().Lookup("workbook"))

	rootCmd.PersistentFlags().String("catalog", "", "TOML catalog of instrument names and sectors")
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))

	rootCmd.PersistentFlags().String("shares-column", "", "Holdings column with the current share counts (default: second numeric column)")
	viper.BindPFlag("holdings.shares_column", rootCmd.PersistentFlags().Lookup("shares-column"))

	rootCmd.PersistentFlags().Bool("json", false, "Print JSON instead of tables")
	viper.BindPFlag("output.json", rootCmd.PersistentFlags().Lookup("json"))

	// Tracing
	rootCmd.PersistentFlags().String("otel-endpoint", "", "OTLP endpoint to export traces to; blank disables tracing")
	viper.BindPFlag("otel.endpoint", rootCmd.PersistentFlags().Lookup("otel-endpoint"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("workbook.price_sheet", "Price")
	viper.SetDefault("workbook.holdings_sheet", "shares")
	viper.SetDefault("workbook.nav_sheet", "chart")
	viper.SetDefault("workbook.nav_skip_rows", 2)

	viper.SetDefault("returns.offsets", returns.DefaultOffsets)
	viper.SetDefault("returns.cumulative_offsets", returns.DefaultCumulativeOffsets)
	viper.SetDefault("returns.anchors", []int{2024, 2025})
	viper.SetDefault("returns.fallback_window", 0)

	viper.SetDefault("risk.risk_free_rate", risk.DefaultRiskFreeRate)
	viper.SetDefault("risk.trading_days", risk.DefaultTradingDays)
	viper.SetDefault("risk.confidence", risk.DefaultConfidence)

	viper.SetDefault("attribution.top_n", 5)
	viper.SetDefault("attribution.mover_threshold", 0.02)
	viper.SetDefault("compare.since_year", 2024)

	viper.SetDefault("calendar.holidays", tradecron.DefaultHolidays)

	viper.SetDefault("chart.width", chart.DefaultOptions().Width)
	viper.SetDefault("chart.height", chart.DefaultOptions().Height)

	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.refresh_minutes", 5)
	viper.SetDefault("cache.entries", 128)
	viper.SetDefault("watch.schedule", "@close 5 0")
	viper.SetDefault("report.output_dir", ".")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	// a missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home + "/.config")
		viper.AddConfigPath("/etc")
		viper.SetConfigType("toml")
		viper.SetConfigName("fund-monitor")
	}

	viper.SetEnvPrefix("FUNDMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()

	common.SetupLogging()

	if err == nil {
		log.Info().Str("ConfigFile", viper.ConfigFileUsed()).Msg("using config file")
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	if err := tradecron.LoadMarketHolidays(viper.GetStringSlice("calendar.holidays")); err != nil {
		log.Fatal().Err(err).Msg("invalid calendar.holidays")
	}

	otelShutdown, err = opentelemetry.Setup()
	if err != nil {
		log.Fatal().Err(err).Msg("could not setup tracing")
	}
}

var rootCmd = &cobra.Command{
	Use:     "fund-monitor",
	Version: common.CurrentVersion.String(),
	Short:   "Fund performance analytics from spreadsheet snapshots",
	Long: `fund-monitor reads a workbook of daily prices, share holdings and peer NAVs
and reports returns, per-holding attribution, risk statistics and a peer
comparison as tables, JSON, charts, xlsx exports or an HTTP API.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if otelShutdown == nil {
			return
		}
		if err := otelShutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not flush traces")
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
