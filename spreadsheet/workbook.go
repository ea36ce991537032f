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

// Package spreadsheet loads price, holdings and NAV sheets from workbooks and
// CSV files, and exports computed tables back to xlsx.
package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx/v3"

	"github.com/penny-vault/fund-monitor/common"
	"github.com/penny-vault/fund-monitor/dataframe"
	"github.com/penny-vault/fund-monitor/fund"
)

// SectorColumn is the holdings sheet column that holds text sector labels
const SectorColumn = "Sector"

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Options names the sheets of a workbook. NAVSkipRows is the number of rows
// between the header and the first NAV row.
type Options struct {
	PriceSheet    string `mapstructure:"price_sheet"`
	HoldingsSheet string `mapstructure:"holdings_sheet"`
	NAVSheet      string `mapstructure:"nav_sheet"`
	NAVSkipRows   int    `mapstructure:"nav_skip_rows"`
}

// Workbook is the parsed content of a fund monitoring workbook. Holdings and
// NAV are nil when the workbook has no such sheet.
type Workbook struct {
	Prices   *dataframe.DataFrame
	Holdings *fund.HoldingsTable
	Sectors  map[string]string
	NAV      *dataframe.DataFrame
}

// DefaultOptions returns the sheet names used by the fund monitoring workbook
func DefaultOptions() Options {
	return Options{
		PriceSheet:    "Price",
		HoldingsSheet: "shares",
		NAVSheet:      "chart",
		NAVSkipRows:   2,
	}
}

// Load opens an xlsx workbook from disk
func Load(fn string, opts Options) (*Workbook, error) {
	file, err := xlsx.OpenFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not open workbook")
		return nil, err
	}
	return parse(file, opts)
}

// LoadBinary parses an xlsx workbook held in memory
func LoadBinary(data []byte, opts Options) (*Workbook, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		log.Error().Err(err).Msg("could not parse workbook")
		return nil, err
	}
	return parse(file, opts)
}

func parse(file *xlsx.File, opts Options) (*Workbook, error) {
	priceSheet, ok := file.Sheet[opts.PriceSheet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.PriceSheet)
	}

	prices, err := ReadDatedSheet(priceSheet, file.Date1904, 0, true)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", opts.PriceSheet, err)
	}

	wb := &Workbook{
		Prices:  prices,
		Sectors: map[string]string{},
	}

	if sheet, ok := file.Sheet[opts.HoldingsSheet]; ok {
		wb.Holdings, wb.Sectors, err = ReadHoldingsSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", opts.HoldingsSheet, err)
		}
	} else {
		log.Warn().Str("Sheet", opts.HoldingsSheet).Msg("workbook has no holdings sheet")
	}

	if sheet, ok := file.Sheet[opts.NAVSheet]; ok {
		wb.NAV, err = ReadDatedSheet(sheet, file.Date1904, opts.NAVSkipRows, false)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", opts.NAVSheet, err)
		}
	}

	log.Debug().Int("PriceRows", prices.Len()).Int("Instruments", prices.ColCount()).Msg("loaded workbook")
	return wb, nil
}

// ReadDatedSheet reads a sheet whose first column holds dates and whose header
// row names the value columns. skipRows rows after the header are ignored.
// Rows without a date are skipped and trailing rows with no values are
// dropped. In strict mode a text cell is a malformed input error; otherwise
// columns containing text are left out.
func ReadDatedSheet(sheet *xlsx.Sheet, date1904 bool, skipRows int, strict bool) (*dataframe.DataFrame, error) {
	if sheet.MaxRow < 1 || sheet.MaxCol < 2 {
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, ErrMissingHeader)
	}

	names := make([]string, 0, sheet.MaxCol-1)
	for colIdx := 1; colIdx < sheet.MaxCol; colIdx++ {
		cell, err := sheet.Cell(0, colIdx)
		if err != nil {
			return nil, err
		}
		names = append(names, strings.TrimSpace(cell.String()))
	}

	dates := []time.Time{}
	cols := make([][]float64, len(names))
	textCols := make([]bool, len(names))

	for rowIdx := 1 + skipRows; rowIdx < sheet.MaxRow; rowIdx++ {
		dateCell, err := sheet.Cell(rowIdx, 0)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(dateCell.Value) == "" {
			continue
		}

		dt, err := cellDate(dateCell, date1904)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", fund.ErrMalformedInput, rowIdx+1, err)
		}
		dates = append(dates, dt)

		for colIdx := range names {
			cell, err := sheet.Cell(rowIdx, colIdx+1)
			if err != nil {
				return nil, err
			}
			v, err := cellFloat(cell)
			if err != nil {
				if strict {
					return nil, fmt.Errorf("%w: row %d column %q: %w", fund.ErrMalformedInput, rowIdx+1, names[colIdx], err)
				}
				textCols[colIdx] = true
			}
			cols[colIdx] = append(cols[colIdx], v)
		}
	}

	keepNames := make([]string, 0, len(names))
	keepCols := make([][]float64, 0, len(names))
	for colIdx, name := range names {
		if name == "" || textCols[colIdx] {
			log.Debug().Str("Sheet", sheet.Name).Str("Column", name).Msg("skipping non-numeric column")
			continue
		}
		keepNames = append(keepNames, name)
		keepCols = append(keepCols, cols[colIdx])
	}

	df, err := dataframe.New(dates, keepNames, keepCols)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, err)
	}

	return df.Sort().DropEmptyTail(), nil
}

// ReadHoldingsSheet reads a sheet with instrument identifiers in the first
// column and share counts in the remaining columns. A column named Sector is
// read as text.
func ReadHoldingsSheet(sheet *xlsx.Sheet) (*fund.HoldingsTable, map[string]string, error) {
	if sheet.MaxRow < 1 || sheet.MaxCol < 2 {
		return nil, nil, fmt.Errorf("%w: %w", fund.ErrMalformedInput, ErrMissingHeader)
	}

	table := &fund.HoldingsTable{
		Instruments: []string{},
		Columns:     []string{},
	}
	sectors := map[string]string{}

	sectorCol := -1
	valueCols := []int{}
	for colIdx := 1; colIdx < sheet.MaxCol; colIdx++ {
		cell, err := sheet.Cell(0, colIdx)
		if err != nil {
			return nil, nil, err
		}
		name := strings.TrimSpace(cell.String())
		switch {
		case name == "":
			continue
		case strings.EqualFold(name, SectorColumn):
			sectorCol = colIdx
		default:
			table.Columns = append(table.Columns, name)
			valueCols = append(valueCols, colIdx)
		}
	}
	table.Vals = make([][]float64, len(valueCols))

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		idCell, err := sheet.Cell(rowIdx, 0)
		if err != nil {
			return nil, nil, err
		}
		instrument := strings.TrimSpace(idCell.String())
		if instrument == "" {
			continue
		}
		table.Instruments = append(table.Instruments, instrument)

		for idx, colIdx := range valueCols {
			cell, err := sheet.Cell(rowIdx, colIdx)
			if err != nil {
				return nil, nil, err
			}
			v, err := cellFloat(cell)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %q column %q: %w", fund.ErrMalformedInput, instrument, table.Columns[idx], err)
			}
			table.Vals[idx] = append(table.Vals[idx], v)
		}

		if sectorCol != -1 {
			cell, err := sheet.Cell(rowIdx, sectorCol)
			if err != nil {
				return nil, nil, err
			}
			if sector := strings.TrimSpace(cell.String()); sector != "" {
				sectors[instrument] = sector
			}
		}
	}

	return table, sectors, nil
}

// cellFloat returns NaN for a blank cell
func cellFloat(cell *xlsx.Cell) (float64, error) {
	raw := strings.TrimSpace(cell.Value)
	if raw == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("%w: %q", ErrNonNumericCell, raw)
	}
	return v, nil
}

// cellDate accepts excel serial dates and common text layouts. The result is
// midnight in the market timezone.
func cellDate(cell *xlsx.Cell, date1904 bool) (time.Time, error) {
	tz := common.GetTimezone()
	raw := strings.TrimSpace(cell.Value)

	var dt time.Time
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		dt = xlsx.TimeFromExcelTime(serial, date1904)
	} else {
		parsed := false
		for _, layout := range dateLayouts {
			if dt, err = time.Parse(layout, raw); err == nil {
				parsed = true
				break
			}
		}
		if !parsed {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
	}

	return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, tz), nil
}
