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

	"github.com/rs/zerolog/log"
)

// expandBriefFormat pads a timespec with '*' until it has 5 time fields
func expandBriefFormat(spec string) string {
	tokens := strings.Fields(spec)

	special := 0
	for _, token := range tokens {
		if strings.HasPrefix(token, "@") {
			special++
		}
	}

	for len(tokens) < 5+special {
		tokens = append(tokens, "*")
	}

	return strings.Join(tokens, " ")
}

// parseModifiers separates @ modifiers from the time fields and returns the
// resulting robfig/cron timespec plus the time and date modifiers in effect
func parseModifiers(tokens []string, hours MarketHours) (timeSpec, timeFlag, dateFlag string, err error) {
	timeSpecTokens := make([]string, 0, 5)
	specialTokens := make([]string, 0, 2)
	for _, token := range tokens {
		if strings.HasPrefix(token, "@") {
			specialTokens = append(specialTokens, token)
		} else {
			timeSpecTokens = append(timeSpecTokens, token)
		}
	}

	setDate := func(flag string) error {
		if dateFlag != "" {
			return ErrConflictingModifiers
		}
		dateFlag = flag
		return nil
	}

	for _, token := range specialTokens {
		switch token {
		case AtOpen, AtClose:
			if timeFlag != "" {
				return "", "", "", ErrConflictingModifiers
			}
			relativeTo := hours.Open
			if token == AtClose {
				relativeTo = hours.Close
			}
			if timeSpec, err = parseTimeRelativeTo(timeSpecTokens, relativeTo/100, relativeTo%100); err != nil {
				return "", "", "", err
			}
			timeFlag = token
		case AtWeekBegin, AtWeekEnd, AtMonthBegin, AtMonthEnd:
			if err := setDate(token); err != nil {
				return "", "", "", err
			}
		default:
			return "", "", "", ErrUnknownModifier
		}
	}

	if timeSpec == "" {
		timeSpec = strings.Join(timeSpecTokens, " ")
	}

	return timeSpec, timeFlag, dateFlag, nil
}

// parseTimeRelativeTo treats the minute and hour tokens as offsets from the
// given time of day
func parseTimeRelativeTo(tokens []string, hours int, minutes int) (string, error) {
	parseOffset := func(token, name string) (int, error) {
		if token == "*" {
			return 0, nil
		}
		v, err := strconv.Atoi(token)
		if err != nil {
			log.Error().Str(name, token).Msg("could not parse offset token")
			return 0, ErrMalformedTimeSpec
		}
		return v, nil
	}

	mins, err := parseOffset(tokens[0], "MinutesToken")
	if err != nil {
		return "", err
	}

	hrs, err := parseOffset(tokens[1], "HoursToken")
	if err != nil {
		return "", err
	}

	total := (hours+hrs)*60 + minutes + mins
	if total < 0 || total >= 24*60 {
		return "", ErrFieldOutOfBounds
	}

	return fmt.Sprintf("%d %d %s %s %s", total%60, total/60, tokens[2], tokens[3], tokens[4]), nil
}
