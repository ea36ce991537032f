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

// Package snapshot keeps the most recent report for a workbook on disk and
// caches rendered output per workbook revision
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/penny-vault/fund-monitor/catalog"
	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/observability/opentelemetry"
	"github.com/penny-vault/fund-monitor/report"
	"github.com/penny-vault/fund-monitor/spreadsheet"
	"github.com/penny-vault/fund-monitor/tradecron"
)

var (
	ErrNoWorkbook = errors.New("no workbook configured")
)

// Config is everything needed to turn a workbook into a report
type Config struct {
	Path    string
	Sheets  spreadsheet.Options
	Catalog *catalog.Catalog
	Market  *tradecron.MarketStatus
	Report  report.Options
	Cache   *common.SnapshotCache
	Now     func() time.Time
}

// Source serves the report for the current contents of a workbook. The
// workbook is only re-parsed when its bytes change.
type Source struct {
	cfg Config

	mu       sync.RWMutex
	key      string
	current  *report.Report
	loadedAt time.Time
}

// New creates a Source; nothing is read until the first Refresh or Report
func New(cfg Config) *Source {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Source{cfg: cfg}
}

func (s *Source) fingerprint() []byte {
	settings, err := json.Marshal(struct {
		Sheets spreadsheet.Options
		Report report.Options
	}{s.cfg.Sheets, s.cfg.Report})
	if err != nil {
		log.Error().Err(err).Msg("could not encode report settings")
	}
	return settings
}

// Refresh re-reads the workbook and rebuilds the report when the workbook
// changed since the last refresh or the market session rolled over
func (s *Source) Refresh(ctx context.Context) (*report.Report, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "snapshot.Refresh")
	defer span.End()

	if s.cfg.Path == "" {
		return nil, ErrNoWorkbook
	}

	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		log.Error().Err(err).Str("FileName", s.cfg.Path).Msg("could not read workbook")
		return nil, err
	}

	now := s.cfg.Now()
	session := s.cfg.Market.LatestSession(now)
	key := common.SnapshotKey(data, s.fingerprint(), []byte(session.Format("2006-01-02")))
	span.SetAttributes(attribute.String("snapshot.key", key))

	s.mu.RLock()
	if key == s.key && s.current != nil {
		rpt := s.current
		s.mu.RUnlock()
		return rpt, nil
	}
	s.mu.RUnlock()

	wb, err := spreadsheet.LoadBinary(data, s.cfg.Sheets)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.cfg.Path, err)
	}

	rpt, err := report.Build(ctx, wb, s.cfg.Catalog, s.cfg.Market, now, s.cfg.Report)
	if err != nil {
		return nil, fmt.Errorf("build report for %s: %w", s.cfg.Path, err)
	}

	s.mu.Lock()
	s.key = key
	s.current = rpt
	s.loadedAt = now
	s.mu.Unlock()

	log.Info().Str("FileName", s.cfg.Path).Str("Key", key).Str("ReportID", rpt.ID.String()).Msg("refreshed snapshot")
	return rpt, nil
}

// Report returns the current report, building it on first use
func (s *Source) Report(ctx context.Context) (*report.Report, error) {
	rpt, _, err := s.snapshot(ctx)
	return rpt, err
}

func (s *Source) snapshot(ctx context.Context) (*report.Report, string, error) {
	s.mu.RLock()
	rpt, key := s.current, s.key
	s.mu.RUnlock()
	if rpt != nil {
		return rpt, key, nil
	}

	if _, err := s.Refresh(ctx); err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.key, nil
}

// LoadedAt returns when the current report was built
func (s *Source) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Rendered returns output derived from the current report, e.g. a chart image,
// rendering it at most once per workbook revision and name
func (s *Source) Rendered(ctx context.Context, name string, render func(*report.Report) ([]byte, error)) ([]byte, error) {
	rpt, revision, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	key := common.SnapshotKey([]byte(revision), []byte(name))

	if s.cfg.Cache != nil {
		if data, ok, err := s.cfg.Cache.Get(key); err == nil && ok {
			return data, nil
		}
	}

	data, err := render(rpt)
	if err != nil {
		return nil, err
	}

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Set(key, data); err != nil {
			log.Warn().Err(err).Str("Name", name).Msg("could not cache rendered output")
		}
	}
	return data, nil
}
