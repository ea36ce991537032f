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
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx/v3"

	"github.com/penny-vault/fund-monitor/dataframe"
)

// Exporter builds an xlsx workbook one sheet at a time
type Exporter struct {
	file *xlsx.File
}

// NewExporter creates an empty workbook
func NewExporter() *Exporter {
	return &Exporter{
		file: xlsx.NewFile(),
	}
}

// AddFrame writes a dataframe as a sheet with a Date column followed by one
// column per dataframe column. NaN cells are left blank.
func (e *Exporter) AddFrame(name string, df *dataframe.DataFrame) error {
	header := append([]string{"Date"}, df.ColNames...)
	rows := make([][]interface{}, df.Len())
	for rowIdx, dt := range df.Dates {
		row := make([]interface{}, 0, len(header))
		row = append(row, dt)
		for _, col := range df.Vals {
			row = append(row, col[rowIdx])
		}
		rows[rowIdx] = row
	}
	return e.AddTable(name, header, rows)
}

// AddTable writes a sheet with a header row. Cells may be string, float64,
// int or time.Time.
func (e *Exporter) AddTable(name string, header []string, rows [][]interface{}) error {
	sheet, err := e.file.AddSheet(name)
	if err != nil {
		log.Error().Err(err).Str("Sheet", name).Msg("could not add sheet")
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range header {
		headerRow.AddCell().SetString(h)
	}

	for _, vals := range rows {
		row := sheet.AddRow()
		for _, v := range vals {
			cell := row.AddCell()
			switch val := v.(type) {
			case nil:
			case string:
				cell.SetString(val)
			case float64:
				if !math.IsNaN(val) && !math.IsInf(val, 0) {
					cell.SetFloat(val)
				}
			case int:
				cell.SetInt(val)
			case time.Time:
				cell.SetDate(val)
			default:
				cell.SetString(fmt.Sprintf("%v", val))
			}
		}
	}

	return nil
}

// Write encodes the workbook to w
func (e *Exporter) Write(w io.Writer) error {
	return e.file.Write(w)
}

// Save writes the workbook to disk
func (e *Exporter) Save(fn string) error {
	if err := e.file.Save(fn); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not save workbook")
		return err
	}
	return nil
}
