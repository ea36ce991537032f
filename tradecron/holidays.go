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

package tradecron

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/fund-monitor/common"
)

var (
	// holidays maps midnight (unix seconds, market timezone) to the early
	// close time of that day, e.g. 1300, or 0 when the market is closed
	holidays      map[int64]int
	holidayLocker sync.RWMutex
)

// DefaultHolidays are the NYSE full and early-close days. Entries use the
// format YYYY-MM-DD for a closure or YYYY-MM-DD@HHMM for an early close.
var DefaultHolidays = []string{
	"2022-01-17", "2022-02-21", "2022-04-15", "2022-05-30", "2022-06-20", "2022-07-04",
	"2022-09-05", "2022-11-24", "2022-11-25@1300", "2022-12-26",
	"2023-01-02", "2023-01-16", "2023-02-20", "2023-04-07", "2023-05-29", "2023-06-19",
	"2023-07-03@1300", "2023-07-04", "2023-09-04", "2023-11-23", "2023-11-24@1300", "2023-12-25",
	"2024-01-01", "2024-01-15", "2024-02-19", "2024-03-29", "2024-05-27", "2024-06-19",
	"2024-07-03@1300", "2024-07-04", "2024-09-02", "2024-11-28", "2024-11-29@1300",
	"2024-12-24@1300", "2024-12-25",
	"2025-01-01", "2025-01-09", "2025-01-20", "2025-02-17", "2025-04-18", "2025-05-26",
	"2025-06-19", "2025-07-03@1300", "2025-07-04", "2025-09-01", "2025-11-27",
	"2025-11-28@1300", "2025-12-24@1300", "2025-12-25",
	"2026-01-01", "2026-01-19", "2026-02-16", "2026-04-03", "2026-05-25", "2026-06-19",
	"2026-07-03", "2026-09-07", "2026-11-26", "2026-11-27@1300", "2026-12-24@1300",
	"2026-12-25",
}

func init() {
	if err := LoadMarketHolidays(DefaultHolidays); err != nil {
		log.Panic().Err(err).Msg("could not load default market holidays")
	}
}

// LoadMarketHolidays replaces the holiday calendar with the given entries
func LoadMarketHolidays(entries []string) error {
	tz := common.GetTimezone()
	parsed := make(map[int64]int, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		dateStr, closeStr, hasEarlyClose := strings.Cut(entry, "@")
		dt, err := time.ParseInLocation("2006-01-02", dateStr, tz)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrMalformedHoliday, entry)
		}

		closeTime := 0
		if hasEarlyClose {
			closeTime, err = strconv.Atoi(closeStr)
			if err != nil || closeTime <= 0 || closeTime >= 2400 || closeTime%100 >= 60 {
				return fmt.Errorf("%w: %q", ErrMalformedHoliday, entry)
			}
		}

		parsed[dt.Unix()] = closeTime
	}

	holidayLocker.Lock()
	defer holidayLocker.Unlock()
	holidays = parsed

	log.Debug().Int("NumHolidays", len(parsed)).Msg("loaded market holidays")
	return nil
}
