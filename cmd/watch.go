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
	"os/signal"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/fund-monitor/catalog"
	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/report"
	"github.com/penny-vault/fund-monitor/spreadsheet"
	"github.com/penny-vault/fund-monitor/tradecron"
)

var watchOnce bool

func init() {
	watchCmd.Flags().String("schedule", "@close 5 0", "tradecron schedule, e.g. `@close 5 0` for 5 minutes after the close")
	viper.BindPFlag("watch.schedule", watchCmd.Flags().Lookup("schedule"))

	watchCmd.Flags().StringP("output-dir", "o", ".", "Directory to write reports to")
	viper.BindPFlag("report.output_dir", watchCmd.Flags().Lookup("output-dir"))

	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Write a single report and exit")

	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Write a JSON and xlsx report on a market aware schedule",
	Long: `Rebuild the report on a tradecron schedule and write <date>.json and
<date>.xlsx to the output directory. Schedules only fire on trading days;
see the tradecron package for the @open, @close, @weekbegin, @weekend,
@monthbegin and @monthend modifiers.`,
	Run: func(cmd *cobra.Command, args []string) {
		outDir := viper.GetString("report.output_dir")
		if err := os.MkdirAll(outDir, 0755); err != nil {
			log.Fatal().Err(err).Str("OutputDir", outDir).Msg("could not create output directory")
		}

		job := newReportJob(outDir)
		if watchOnce {
			if err := job.run(context.Background()); err != nil {
				log.Fatal().Err(err).Msg("could not write report")
			}
			return
		}

		spec := viper.GetString("watch.schedule")
		schedule, err := tradecron.New(spec, tradecron.ExtendedHours)
		if err != nil {
			log.Fatal().Err(err).Str("Schedule", spec).Msg("invalid watch.schedule")
		}

		c := cron.New(cron.WithLocation(common.GetTimezone()))
		c.Schedule(schedule, cron.FuncJob(func() {
			if err := job.run(context.Background()); err != nil {
				log.Error().Err(err).Msg("scheduled report failed; skipping run")
			}
		}))
		c.Start()

		log.Info().Str("Schedule", spec).Time("NextRun", schedule.Next(time.Now())).Msg("watching workbook")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		<-c.Stop().Done()
	},
}

// reportJob is one scheduled report run. Configuration is resolved when the
// job is created so a bad setting stops the watcher before it starts.
type reportJob struct {
	path   string
	sheets spreadsheet.Options
	cat    *catalog.Catalog
	ms     *tradecron.MarketStatus
	opts   report.Options
	outDir string
	now    func() time.Time
}

func newReportJob(outDir string) *reportJob {
	return &reportJob{
		path:   viper.GetString("workbook.path"),
		sheets: sheetOptions(),
		cat:    loadCatalog(),
		ms:     marketStatus(),
		opts:   reportOptions(),
		outDir: outDir,
		now:    time.Now,
	}
}

func (j *reportJob) run(ctx context.Context) error {
	wb, err := loadWorkbook(ctx, j.path, j.sheets)
	if err != nil {
		return fmt.Errorf("load workbook %q: %w", j.path, err)
	}
	rpt, err := report.Build(ctx, wb, j.cat, j.ms, j.now(), j.opts)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	return writeReport(rpt, j.outDir)
}

// writeReport saves the report as <as of date>.json and <as of date>.xlsx
func writeReport(rpt *report.Report, outDir string) error {
	base := filepath.Join(outDir, rpt.AsOf.Format("2006-01-02"))

	data, err := rpt.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".json", data, 0644); err != nil {
		return err
	}

	ex := spreadsheet.NewExporter()
	if err := rpt.Export(ex); err != nil {
		return err
	}
	if err := ex.Save(base + ".xlsx"); err != nil {
		return err
	}

	log.Info().Str("ReportID", rpt.ID.String()).Str("Path", base).Msg("wrote report")
	return nil
}
