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
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/fund-monitor/common"
)

var _ = Describe("Watch", func() {
	var (
		dir     string
		outDir  string
		csvPath string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "fund-monitor-watch")
		Expect(err).To(BeNil())
		DeferCleanup(func() {
			os.RemoveAll(dir)
		})

		outDir = filepath.Join(dir, "out")
		Expect(os.MkdirAll(outDir, 0755)).To(Succeed())

		csvPath = filepath.Join(dir, "prices.csv")
		Expect(os.WriteFile(csvPath, []byte("Date,A,B\n2024-07-08,100,50\n2024-07-09,110,47.5\n"), 0644)).To(Succeed())

		viper.Set("workbook.path", csvPath)
		viper.Set("catalog.path", "")
		DeferCleanup(func() {
			viper.Set("workbook.path", "")
		})
	})

	It("resolves configuration when the job is created", func() {
		job := newReportJob(outDir)
		Expect(job.path).To(Equal(csvPath))
		Expect(job.cat).ToNot(BeNil())
		Expect(job.ms).ToNot(BeNil())

		viper.Set("workbook.path", filepath.Join(dir, "elsewhere.csv"))
		Expect(job.path).To(Equal(csvPath))
	})

	It("writes json and xlsx reports named after the last session", func() {
		job := newReportJob(outDir)
		job.now = func() time.Time {
			return time.Date(2024, 7, 9, 17, 0, 0, 0, common.GetTimezone())
		}

		Expect(job.run(context.Background())).To(Succeed())
		Expect(filepath.Join(outDir, "2024-07-09.json")).To(BeAnExistingFile())
		Expect(filepath.Join(outDir, "2024-07-09.xlsx")).To(BeAnExistingFile())
	})

	It("returns an error for a missing workbook instead of exiting", func() {
		job := newReportJob(outDir)
		job.path = filepath.Join(dir, "missing.csv")

		err := job.run(context.Background())
		Expect(err).To(MatchError(os.ErrNotExist))
	})
})
