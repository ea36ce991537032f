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
	"runtime/pprof"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/handler"
	"github.com/penny-vault/fund-monitor/middleware"
	"github.com/penny-vault/fund-monitor/router"
	"github.com/penny-vault/fund-monitor/snapshot"
)

var Profile bool

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().Int("refresh-minutes", 5, "Minutes between workbook refreshes")
	viper.BindPFlag("server.refresh_minutes", serveCmd.Flags().Lookup("refresh-minutes"))

	serveCmd.Flags().String("cors-origins", "*", "Comma separated origins allowed to call the API")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	serveCmd.Flags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fund-monitor API server",
	Long:  `Run an HTTP server that reports analytics for the configured workbook and reloads it periodically`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start profiling")
			}
			defer pprof.StopCPUProfile()
		}

		if viper.GetString("workbook.path") == "" {
			log.Fatal().Msg("serve requires a workbook; use --workbook or workbook.path")
		}

		cache, err := common.NewSnapshotCache(viper.GetInt("cache.entries"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not create snapshot cache")
		}

		source := snapshot.New(snapshot.Config{
			Path:    viper.GetString("workbook.path"),
			Sheets:  sheetOptions(),
			Catalog: loadCatalog(),
			Market:  marketStatus(),
			Report:  reportOptions(),
			Cache:   cache,
		})

		if _, err := source.Refresh(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("could not build initial report")
		}

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("app shutdown failed")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,HEAD",
		}))
		app.Use(middleware.NewLogger())

		router.SetupRoutes(app, handler.New(source, chartOptions()))

		// reload the workbook; unchanged workbooks are not rebuilt
		scheduler := gocron.NewScheduler(common.GetTimezone())
		if _, err := scheduler.Every(viper.GetInt("server.refresh_minutes")).Minutes().Do(func() {
			if _, err := source.Refresh(context.Background()); err != nil {
				log.Error().Err(err).Msg("workbook refresh failed; serving previous report")
			}
		}); err != nil {
			log.Fatal().Err(err).Msg("could not schedule workbook refresh")
		}
		scheduler.StartAsync()
		defer scheduler.Stop()

		log.Info().Str("Workbook", viper.GetString("workbook.path")).Int("Port", viper.GetInt("server.port")).Msg("starting server")
		if err := app.Listen(fmt.Sprintf(":%d", viper.GetInt("server.port"))); err != nil {
			log.Fatal().Err(err).Msg("app.Listen returned an error")
		}
	},
}
