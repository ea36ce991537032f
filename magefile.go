//go:build mage

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

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "fund-monitor"
	modulePath = "github.com/penny-vault/fund-monitor"
	coverFile  = "coverage.out"
)

// GOEXE overrides the go executable
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

// Build the fund-monitor binary with commit hash and build date stamped into common
func Build() error {
	fmt.Println("Building...")
	args := append([]string{"build", "-o", binaryName, "-ldflags", ldflags()}, buildFlags()...)
	return sh.RunWith(versionEnv(), goexe, append(args, ".")...)
}

// Clean removes the binary and coverage output
func Clean() {
	fmt.Println("Cleaning...")
	for _, fn := range []string{binaryName, coverFile} {
		os.RemoveAll(fn)
	}
}

// Check runs the formatter check, vet and the race enabled test suites
func Check() {
	mg.Deps(Fmt, Vet)
	mg.Deps(TestRace)
}

// Test runs every ginkgo suite
func Test() error {
	fmt.Println("Go Test")
	return runTests()
}

// TestRace runs every ginkgo suite under the race detector
func TestRace() error {
	fmt.Println("Go Test Race")
	return runTests("-race")
}

// Fmt fails when any source file is not gofmt'ed
func Fmt() error {
	fmt.Println("Go Format")

	files, err := sourceFiles()
	if err != nil {
		return err
	}

	// gofmt -l exits zero on unformatted files, only the listing tells
	out, err := sh.Output("gofmt", append([]string{"-l"}, files...)...)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(out)
		return errors.New("improperly formatted go files")
	}
	return nil
}

// Vet runs go vet on every package
func Vet() error {
	fmt.Println("Go Vet")
	if err := sh.Run(goexe, "vet", "./..."); err != nil {
		return fmt.Errorf("error running go vet: %w", err)
	}
	return nil
}

// Lint runs golint; findings are printed but do not fail the target
func Lint() error {
	fmt.Println("Go Lint")
	if _, err := sh.Exec(nil, os.Stdout, os.Stderr, "golint", "./..."); err != nil {
		return fmt.Errorf("error running golint: %w", err)
	}
	return nil
}

// TestCoverHTML opens an html coverage report for all packages
func TestCoverHTML() error {
	fmt.Println("Generate Test Coverage HTML")
	if err := sh.Run(goexe, "test", "-coverprofile="+coverFile, "-covermode=count", "./..."); err != nil {
		return err
	}
	return sh.Run(goexe, "tool", "cover", "-html="+coverFile)
}

func runTests(extra ...string) error {
	args := append([]string{"test"}, extra...)
	args = append(args, buildFlags()...)
	args = append(args, "./...")
	if mg.Verbose() {
		return sh.RunV(goexe, args...)
	}
	out, err := sh.Output(goexe, args...)
	if err != nil {
		fmt.Fprint(os.Stderr, out)
	}
	return err
}

func ldflags() string {
	return "-X " + modulePath + "/common.commitHash=$COMMIT_HASH -X " + modulePath + "/common.buildDate=$BUILD_DATE"
}

func buildFlags() []string {
	if runtime.GOOS == "windows" {
		return []string{"-buildmode", "exe"}
	}
	return nil
}

func versionEnv() map[string]string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return map[string]string{
		"COMMIT_HASH": hash,
		"BUILD_DATE":  time.Now().Format("2006-01-02T15:04:05Z0700"),
	}
}

// sourceFiles lists the module's go files, skipping the directories the go
// tool ignores
func sourceFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != "." && (strings.HasPrefix(info.Name(), "_") || strings.HasPrefix(info.Name(), ".")) {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(path, ".go") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
