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
	"time"

	"github.com/penny-vault/fund-monitor/common"
)

// MarketStatus answers calendar questions about the US equity market. All
// dates are evaluated in the market timezone (America/New_York).
type MarketStatus struct {
	marketHours *MarketHours
	tz          *time.Location
}

// PeriodAnchors are the reference dates for period-to-date returns
type PeriodAnchors struct {
	Latest     time.Time `json:"latest"`
	Previous   time.Time `json:"previous"`
	WeekBegin  time.Time `json:"week_begin"`
	MonthBegin time.Time `json:"month_begin"`
	YearBegin  time.Time `json:"year_begin"`
}

// NewMarketStatus creates a MarketStatus for the given trading hours
func NewMarketStatus(hours *MarketHours) *MarketStatus {
	return &MarketStatus{
		marketHours: hours,
		tz:          common.GetTimezone(),
	}
}

func (ms *MarketStatus) midnight(t time.Time) time.Time {
	t = t.In(ms.tz)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ms.tz)
}

// EarlyClose returns close time of an early close market day, e.g. 1300; 0
// on a regular day
func (ms *MarketStatus) EarlyClose(t time.Time) int {
	holidayLocker.RLock()
	defer holidayLocker.RUnlock()

	if closeTime, ok := holidays[ms.midnight(t).Unix()]; ok {
		return closeTime
	}
	return 0
}

// CloseTime returns the close time of the market on the given day, e.g. 1600
func (ms *MarketStatus) CloseTime(t time.Time) int {
	if early := ms.EarlyClose(t); early != 0 {
		return early
	}
	return ms.marketHours.Close
}

// IsMarketHoliday returns true if the market is closed all day on t
func (ms *MarketStatus) IsMarketHoliday(t time.Time) bool {
	holidayLocker.RLock()
	defer holidayLocker.RUnlock()

	closeTime, ok := holidays[ms.midnight(t).Unix()]
	return ok && closeTime == 0
}

// IsMarketDay returns true if t is a trading day (not a weekend or holiday)
func (ms *MarketStatus) IsMarketDay(t time.Time) bool {
	local := t.In(ms.tz)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return !ms.IsMarketHoliday(local)
}

// IsMarketOpen returns true if t falls within trading hours on a trading day
func (ms *MarketStatus) IsMarketOpen(t time.Time) bool {
	if !ms.IsMarketDay(t) {
		return false
	}

	local := t.In(ms.tz)
	timeOfDay := local.Hour()*100 + local.Minute()
	return timeOfDay >= ms.marketHours.Open && timeOfDay <= ms.CloseTime(local)
}

// IsClosedForDay returns true once the session on t's day has finished, or
// when t's day is not a trading day
func (ms *MarketStatus) IsClosedForDay(t time.Time) bool {
	if !ms.IsMarketDay(t) {
		return true
	}
	local := t.In(ms.tz)
	return local.Hour()*100+local.Minute() >= ms.CloseTime(local)
}

// PreviousMarketDay returns midnight of the last trading day before t
func (ms *MarketStatus) PreviousMarketDay(t time.Time) time.Time {
	d := ms.midnight(t).AddDate(0, 0, -1)
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// NextMarketDay returns midnight of the first trading day after t
func (ms *MarketStatus) NextMarketDay(t time.Time) time.Time {
	d := ms.midnight(t).AddDate(0, 0, 1)
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// onOrAfter returns d if it is a trading day, otherwise the next trading day
func (ms *MarketStatus) onOrAfter(d time.Time) time.Time {
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// FirstTradingDayOfWeek returns the first trading day of the Monday-based
// week containing t
func (ms *MarketStatus) FirstTradingDayOfWeek(t time.Time) time.Time {
	d := ms.midnight(t)
	offset := (int(d.Weekday()) + 6) % 7
	return ms.onOrAfter(d.AddDate(0, 0, -offset))
}

// FirstTradingDayOfMonth returns the first trading day of t's month
func (ms *MarketStatus) FirstTradingDayOfMonth(t time.Time) time.Time {
	d := ms.midnight(t)
	return ms.onOrAfter(time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, ms.tz))
}

// FirstTradingDayOfYear returns the first trading day of t's year
func (ms *MarketStatus) FirstTradingDayOfYear(t time.Time) time.Time {
	d := ms.midnight(t)
	return ms.onOrAfter(time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, ms.tz))
}

// LatestSession returns the most recent trading day whose session has closed
// as of now: today after the close, otherwise the previous trading day
func (ms *MarketStatus) LatestSession(now time.Time) time.Time {
	if ms.IsMarketDay(now) && ms.IsClosedForDay(now) {
		return ms.midnight(now)
	}
	return ms.PreviousMarketDay(now)
}

// Anchors computes the period-to-date reference dates for the latest closed
// session as of now
func (ms *MarketStatus) Anchors(now time.Time) PeriodAnchors {
	latest := ms.LatestSession(now)
	return PeriodAnchors{
		Latest:     latest,
		Previous:   ms.PreviousMarketDay(latest),
		WeekBegin:  ms.FirstTradingDayOfWeek(latest),
		MonthBegin: ms.FirstTradingDayOfMonth(latest),
		YearBegin:  ms.FirstTradingDayOfYear(latest),
	}
}

// NextFirstTradingDayOfMonth returns the first trading day of the month after t
func (ms *MarketStatus) NextFirstTradingDayOfMonth(t time.Time) time.Time {
	d := ms.midnight(t)
	return ms.onOrAfter(time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, ms.tz).AddDate(0, 1, 0))
}

// NextFirstTradingDayOfWeek returns the first trading day of the week after t
func (ms *MarketStatus) NextFirstTradingDayOfWeek(t time.Time) time.Time {
	d := ms.midnight(t)
	daysToWeekBegin := (8 - int(d.Weekday())) % 7
	return ms.onOrAfter(d.AddDate(0, 0, daysToWeekBegin))
}

// LastTradingDayOfMonth returns the last trading day of t's month
func (ms *MarketStatus) LastTradingDayOfMonth(t time.Time) time.Time {
	d := ms.midnight(t)
	last := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, ms.tz).AddDate(0, 1, -1)
	for !ms.IsMarketDay(last) {
		last = last.AddDate(0, 0, -1)
	}
	return last
}

// NextLastTradingDayOfWeek returns the last trading day of t's week
func (ms *MarketStatus) NextLastTradingDayOfWeek(t time.Time) time.Time {
	d := ms.midnight(t)
	last := d.AddDate(0, 0, int(time.Friday-d.Weekday()))
	for !ms.IsMarketDay(last) {
		last = last.AddDate(0, 0, -1)
	}
	return last
}
