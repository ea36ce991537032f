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
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	AtOpen       = "@open"
	AtClose      = "@close"
	AtWeekBegin  = "@weekbegin"
	AtWeekEnd    = "@weekend"
	AtMonthBegin = "@monthbegin"
	AtMonthEnd   = "@monthend"
)

// maxScheduleIterations bounds the search for the next open market time
const maxScheduleIterations = 5000

// MarketHours is the open and close time of a session as HHMM
type MarketHours struct {
	Open  int
	Close int
}

// TradeCron is a market aware cron schedule. It implements cron.Schedule so it
// can be registered directly with a robfig/cron runner.
type TradeCron struct {
	Schedule       cron.Schedule
	ScheduleString string
	TimeSpec       string
	TimeFlag       string
	DateFlag       string
	marketStatus   *MarketStatus
}

var (
	RegularHours = MarketHours{
		Open:  930,
		Close: 1600,
	}
	ExtendedHours = MarketHours{
		Open:  700,
		Close: 2000,
	}
)

// New parses a market aware schedule. Schedules use the standard cron fields
// Minute Hour DayOfMonth Month DayOfWeek; trailing fields may be omitted and
// default to '*'. Wildcards only fire while the market is open.
//
// Market-aware modifiers:
//
//	@open       - relative to market open; minute and hour become offsets
//	@close      - relative to market close; minute and hour become offsets
//	@weekbegin  - first trading day of the week
//	@weekend    - last trading day of the week
//	@monthbegin - first trading day of the month
//	@monthend   - last trading day of the month
//
// Examples:
//   - refresh 5 minutes after the close: @close 5
//   - every 15 minutes while open: */15
//   - month end report at the close: @close @monthend
func New(cronSpec string, hours MarketHours) (*TradeCron, error) {
	specParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	scheduleStr := expandBriefFormat(strings.TrimSpace(cronSpec))
	timeSpec, timeFlag, dateFlag, err := parseModifiers(strings.Fields(scheduleStr), hours)
	if err != nil {
		return nil, err
	}

	schedule, err := specParser.Parse(timeSpec)
	if err != nil {
		log.Error().Err(err).Str("TimeSpec", timeSpec).Str("TradeCronSpec", cronSpec).Msg("robfig/cron could not parse timespec")
		return nil, err
	}

	return &TradeCron{
		Schedule:       schedule,
		ScheduleString: cronSpec,
		TimeSpec:       timeSpec,
		TimeFlag:       timeFlag,
		DateFlag:       dateFlag,
		marketStatus:   NewMarketStatus(&hours),
	}, nil
}

// MarketStatus returns the calendar used by the schedule
func (tc *TradeCron) MarketStatus() *MarketStatus {
	return tc.marketStatus
}

// IsTradeDay returns true if the schedule fires on forDate's day. The time
// portion of the schedule is ignored.
func (tc *TradeCron) IsTradeDay(forDate time.Time) bool {
	ms := tc.marketStatus
	day := ms.midnight(forDate)
	endOfPrevDay := day.Add(-time.Nanosecond)
	next := tc.Next(endOfPrevDay)
	return ms.midnight(next).Equal(day)
}

// Next returns the next time after forDate at which the schedule fires while
// the market is open
func (tc *TradeCron) Next(forDate time.Time) time.Time {
	checkDate := tc.searchStart(forDate)

	for iter := 0; ; iter++ {
		checkDate = tc.Schedule.Next(checkDate)
		if tc.marketStatus.IsMarketOpen(checkDate) {
			return checkDate
		}
		if iter > maxScheduleIterations {
			log.Panic().Str("TimeSpec", tc.TimeSpec).Msg("tradecron schedule never fires during market hours")
		}
	}
}

// searchStart fast-forwards forDate to the earliest day that satisfies the
// date modifier of the schedule
func (tc *TradeCron) searchStart(forDate time.Time) time.Time {
	ms := tc.marketStatus
	next := tc.Schedule.Next(forDate)
	nextDay := ms.midnight(next)

	switch tc.DateFlag {
	case AtWeekBegin:
		return alignTo(forDate, nextDay, ms.NextFirstTradingDayOfWeek(forDate), ms.NextFirstTradingDayOfWeek)
	case AtWeekEnd:
		return alignTo(forDate, nextDay, ms.NextLastTradingDayOfWeek(forDate), ms.NextLastTradingDayOfWeek)
	case AtMonthBegin:
		lastMonth := time.Date(forDate.Year(), forDate.Month(), 1, 23, 59, 59, 999_999_999, ms.tz).AddDate(0, 0, -1)
		thisMonth := ms.NextFirstTradingDayOfMonth(lastMonth)
		nextMonth := ms.NextFirstTradingDayOfMonth(forDate)
		if nextDay.Equal(thisMonth) || nextDay.Equal(nextMonth) {
			return forDate
		}
		firstFire := time.Date(nextMonth.Year(), nextMonth.Month(), nextMonth.Day(), next.Hour(), next.Minute(), next.Second(), next.Nanosecond(), next.Location())
		if next.After(firstFire) {
			return ms.NextFirstTradingDayOfMonth(next)
		}
		return nextMonth
	case AtMonthEnd:
		lastTradingDay := ms.LastTradingDayOfMonth(next)
		followingMonth := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, ms.tz).AddDate(0, 1, 0)
		switch {
		case nextDay.Before(lastTradingDay):
			return lastTradingDay
		case nextDay.Equal(lastTradingDay):
			return forDate
		default:
			return ms.LastTradingDayOfMonth(followingMonth)
		}
	default:
		return forDate
	}
}

// alignTo picks where to search from for week based modifiers: the target day
// if the schedule would fire before it, forDate if it fires on it, otherwise
// the target following the schedule's day
func alignTo(forDate, nextDay, target time.Time, following func(time.Time) time.Time) time.Time {
	switch {
	case nextDay.Before(target):
		return target
	case nextDay.Equal(target):
		return forDate
	default:
		return following(nextDay)
	}
}
