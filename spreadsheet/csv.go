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

package spreadsheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	dataframego "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/dataframe"
	"github.com/penny-vault/fund-monitor/fund"
)

// LoadCSV reads a CSV with a date column first and one numeric column per
// instrument or fund. Blank cells are NaN; any other non-numeric cell is a
// malformed input error.
func LoadCSV(ctx context.Context, r io.ReadSeeker) (*dataframe.DataFrame, error) {
	header, err := csv.NewReader(r).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, ErrMissingHeader)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, ErrMissingHeader)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	tz := common.GetTimezone()
	dateCol := header[0]

	floatConverter := imports.Converter{
		ConcreteType: float64(0),
		ConverterFunc: func(in interface{}) (interface{}, error) {
			raw := strings.TrimSpace(in.(string))
			if raw == "" {
				return math.NaN(), nil
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrNonNumericCell, raw)
			}
			return v, nil
		},
	}

	dictate := map[string]interface{}{
		dateCol: imports.Converter{
			ConcreteType: time.Time{},
			ConverterFunc: func(in interface{}) (interface{}, error) {
				raw := strings.TrimSpace(in.(string))
				for _, layout := range dateLayouts {
					if dt, err := time.ParseInLocation(layout, raw, tz); err == nil {
						return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, tz), nil
					}
				}
				return nil, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
			},
		},
	}
	for _, name := range header[1:] {
		dictate[name] = floatConverter
	}

	res, err := imports.LoadFromCSV(ctx, r, imports.CSVLoadOptions{
		DictateDataType: dictate,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not load csv")
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, err)
	}

	return fromDataframeGo(res, dateCol)
}

// fromDataframeGo converts a loaded frame into a date indexed dataframe. Value
// columns hold float64 cells or nil regardless of the series implementation the
// loader picked for them.
func fromDataframeGo(res *dataframego.DataFrame, dateCol string) (*dataframe.DataFrame, error) {
	dateIdx, err := res.NameToColumn(dateCol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, err)
	}

	dateSeries, ok := res.Series[dateIdx].(*dataframego.SeriesTime)
	if !ok {
		return nil, fmt.Errorf("%w: date column %q", fund.ErrMalformedInput, dateCol)
	}

	keepRows := make([]int, 0, len(dateSeries.Values))
	dates := make([]time.Time, 0, len(dateSeries.Values))
	for rowIdx, dt := range dateSeries.Values {
		if dt == nil {
			continue
		}
		keepRows = append(keepRows, rowIdx)
		dates = append(dates, *dt)
	}

	names := []string{}
	vals := [][]float64{}
	for idx, series := range res.Series {
		if idx == dateIdx {
			continue
		}
		col := make([]float64, len(keepRows))
		for dst, src := range keepRows {
			switch v := series.Value(src, dataframego.DontLock).(type) {
			case nil:
				col[dst] = math.NaN()
			case float64:
				col[dst] = v
			default:
				return nil, fmt.Errorf("%w: column %q is not numeric", fund.ErrMalformedInput, series.Name())
			}
		}
		names = append(names, series.Name())
		vals = append(vals, col)
	}

	df, err := dataframe.New(dates, names, vals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, err)
	}

	return df.Sort().DropEmptyTail(), nil
}
