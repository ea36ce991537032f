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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/fund-monitor/report"
)

func init() {
	rootCmd.AddCommand(reportCmd)
	for _, section := range sections {
		rootCmd.AddCommand(sectionCommand(section))
	}
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print every analytic for the workbook",
	Run: func(cmd *cobra.Command, args []string) {
		rpt := buildReport(context.Background())
		if viper.GetBool("output.json") {
			printJSON(rpt)
			return
		}
		fmt.Print(rpt.Text())
	},
}

// section is a subcommand printing one part of the report
type section struct {
	use   string
	short string
	text  func(*report.Report, *strings.Builder)
	json  func(*report.Report) interface{}
}

var sections = []section{
	{
		use:   "returns",
		short: "Print point and cumulative returns per instrument",
		text:  (*report.Report).ReturnsText,
		json: func(rpt *report.Report) interface{} {
			return map[string]interface{}{
				"returns":        rpt.Returns,
				"cumulative":     rpt.Cumulative,
				"top_cumulative": rpt.TopCumulative,
			}
		},
	},
	{
		use:   "attribution",
		short: "Print each holding's contribution to the daily fund return",
		text:  (*report.Report).AttributionText,
		json: func(rpt *report.Report) interface{} {
			return rpt.Attribution
		},
	},
	{
		use:   "risk",
		short: "Print volatility, drawdown, VaR and Sharpe ratio",
		text: func(rpt *report.Report, s *strings.Builder) {
			rpt.FundText(s)
			rpt.RiskText(s)
		},
		json: func(rpt *report.Report) interface{} {
			return map[string]interface{}{
				"fund": rpt.Fund,
				"risk": rpt.Risk,
			}
		},
	},
	{
		use:   "compare",
		short: "Print the peer NAV comparison",
		text:  (*report.Report).ComparisonText,
		json: func(rpt *report.Report) interface{} {
			return rpt.Comparison
		},
	},
}

func sectionCommand(sec section) *cobra.Command {
	return &cobra.Command{
		Use:   sec.use,
		Short: sec.short,
		Run: func(cmd *cobra.Command, args []string) {
			rpt := buildReport(context.Background())
			if viper.GetBool("output.json") {
				printJSON(sec.json(rpt))
				return
			}
			s := &strings.Builder{}
			sec.text(rpt, s)
			fmt.Print(s.String())
		},
	}
}
