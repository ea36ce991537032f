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

package dataframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.AddConst(scalar, df.Vals[colIdx])
	}
	return df
}

// CumProd computes the running product of each column and returns a new
// dataframe. NaN values are skipped and carry the previous product forward.
func (df *DataFrame) CumProd() *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		prod := 1.0
		for rowIdx, v := range col {
			if !math.IsNaN(v) {
				prod *= v
			}
			col[rowIdx] = prod
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// PctChange computes (x[t] / x[t-periods]) - 1 for each column and returns a new
// dataframe of the same length. The first `periods` rows, and any row where
// either value is NaN, are NaN. Rows are assumed to be in ascending date order.
func (df *DataFrame) PctChange(periods int) *DataFrame {
	res := &DataFrame{
		Dates:    df.Dates,
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx, col := range df.Vals {
		out := make([]float64, len(col))
		for rowIdx := range col {
			if rowIdx < periods || periods < 1 {
				out[rowIdx] = math.NaN()
				continue
			}
			out[rowIdx] = col[rowIdx]/col[rowIdx-periods] - 1
		}
		res.Vals[colIdx] = out
	}

	return res
}

// WeightedSum computes sum(col * weight) per row for every column that has a
// weight and returns a single column dataframe named `name`. A row is NaN when
// any weighted column is NaN in that row.
func (df *DataFrame) WeightedSum(weights map[string]float64, name string) *DataFrame {
	sum := make([]float64, df.Len())
	for colIdx, colName := range df.ColNames {
		weight, ok := weights[colName]
		if !ok || weight == 0 {
			continue
		}
		floats.AddScaled(sum, weight, df.Vals[colIdx])
	}

	return &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{name},
		Vals:     [][]float64{sum},
	}
}
