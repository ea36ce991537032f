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

package attribution

import "sort"

// UnclassifiedSector labels instruments with no sector mapping
const UnclassifiedSector = "Unclassified"

// SectorRollup aggregates attribution for one sector
type SectorRollup struct {
	Sector       string  `json:"sector"`
	Holdings     int     `json:"holdings"`
	Contribution float64 `json:"contribution"`
	Weight       float64 `json:"weight"`
	PriorValue   float64 `json:"prior_value"`
}

// BySector sums contribution, weight and prior value per sector, sorted by
// contribution descending. sectors maps an instrument to its sector.
func (r *Result) BySector(sectors map[string]string) []SectorRollup {
	bySector := make(map[string]*SectorRollup)
	order := []string{}

	for _, instrument := range r.Instruments {
		sector, ok := sectors[instrument]
		if !ok || sector == "" {
			sector = UnclassifiedSector
		}

		rollup, ok := bySector[sector]
		if !ok {
			rollup = &SectorRollup{Sector: sector}
			bySector[sector] = rollup
			order = append(order, sector)
		}

		rollup.Holdings++
		rollup.Contribution += r.Contribution[instrument]
		rollup.Weight += r.Weight[instrument]
		rollup.PriorValue += r.PriorValue[instrument]
	}

	res := make([]SectorRollup, 0, len(order))
	for _, sector := range order {
		res = append(res, *bySector[sector])
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Contribution > res[j].Contribution
	})

	return res
}
