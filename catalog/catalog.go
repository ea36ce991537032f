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

// Package catalog maps instrument identifiers to display names and sectors
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/fund-monitor/attribution"
	"github.com/penny-vault/fund-monitor/fund"
)

var (
	ErrInvalidCatalog = errors.New("invalid instrument catalog")
)

// Instrument describes a single holding
type Instrument struct {
	Name   string `toml:"name" json:"name"`
	Sector string `toml:"sector" json:"sector"`
}

// Catalog is keyed by instrument identifier, e.g. TWSE:2330
type Catalog struct {
	Instruments map[string]Instrument `toml:"instruments" json:"instruments"`
}

// Allocation is the share of the portfolio held in one sector
type Allocation struct {
	Sector string  `json:"sector"`
	Count  int     `json:"count"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// Default returns the built-in display names
func Default() *Catalog {
	return &Catalog{
		Instruments: map[string]Instrument{
			"KOSE:A000660": {Name: "SK Hynix"},
			"TASE:NICE":    {Name: "NICE"},
			"TSE:3110":     {Name: "Nitto Boseki"},
			"TWSE:2330":    {Name: "TSM"},
			"TWSE:2454":    {Name: "MediaTek"},
		},
	}
}

// Load reads a TOML catalog from disk. Entries in the file are layered on top
// of the defaults.
func Load(fn string) (*Catalog, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not read instrument catalog")
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a TOML catalog:
//
//	[instruments."TWSE:2330"]
//	name = "TSM"
//	sector = "Information Technology"
func Parse(data []byte) (*Catalog, error) {
	parsed := &Catalog{}
	if err := toml.Unmarshal(data, parsed); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, err.Error())
	}

	cat := Default()
	for id, instrument := range parsed.Instruments {
		if id == "" {
			return nil, fmt.Errorf("%w: empty instrument identifier", ErrInvalidCatalog)
		}
		cat.Set(id, instrument)
	}

	log.Debug().Int("NumInstruments", len(cat.Instruments)).Msg("loaded instrument catalog")
	return cat, nil
}

// Set adds or updates an instrument. Blank fields leave existing values in
// place.
func (c *Catalog) Set(id string, instrument Instrument) {
	if c.Instruments == nil {
		c.Instruments = make(map[string]Instrument)
	}

	current := c.Instruments[id]
	if instrument.Name != "" {
		current.Name = instrument.Name
	}
	if instrument.Sector != "" {
		current.Sector = instrument.Sector
	}
	c.Instruments[id] = current
}

// Clone returns a deep copy of the catalog
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{Instruments: make(map[string]Instrument, len(c.Instruments))}
	for id, instrument := range c.Instruments {
		clone.Instruments[id] = instrument
	}
	return clone
}

// WithSectors records sectors for instruments, e.g. from a holdings sheet
func (c *Catalog) WithSectors(sectors map[string]string) *Catalog {
	for id, sector := range sectors {
		c.Set(id, Instrument{Sector: sector})
	}
	return c
}

// DisplayName returns the friendly name of an instrument, or the identifier
// when none is configured
func (c *Catalog) DisplayName(id string) string {
	if instrument, ok := c.Instruments[id]; ok && instrument.Name != "" {
		return instrument.Name
	}
	return id
}

// DisplayNames maps each identifier to its display name
func (c *Catalog) DisplayNames(ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		names[id] = c.DisplayName(id)
	}
	return names
}

// Sector returns the sector of an instrument or attribution.UnclassifiedSector
func (c *Catalog) Sector(id string) string {
	if instrument, ok := c.Instruments[id]; ok && instrument.Sector != "" {
		return instrument.Sector
	}
	return attribution.UnclassifiedSector
}

// Sectors returns the instrument to sector mapping for every instrument with a
// configured sector
func (c *Catalog) Sectors() map[string]string {
	sectors := make(map[string]string, len(c.Instruments))
	for id, instrument := range c.Instruments {
		if instrument.Sector != "" {
			sectors[id] = instrument.Sector
		}
	}
	return sectors
}

// AllocationByCount counts holdings per sector
func (c *Catalog) AllocationByCount(holdings fund.Holdings) []Allocation {
	bySector := make(map[string]*Allocation)
	total := 0
	for _, id := range holdings.Instruments() {
		alloc := c.allocation(bySector, id)
		alloc.Count++
		total++
	}

	res := collect(bySector)
	for idx := range res {
		res[idx].Weight = float64(res[idx].Count) / float64(total)
	}
	sortAllocations(res, func(a Allocation) float64 { return float64(a.Count) })
	return res
}

// AllocationByValue sums the market value (most recent price times shares)
// held in each sector. Instruments without a current price are left out.
func (c *Catalog) AllocationByValue(pm *fund.PriceMatrix, holdings fund.Holdings) ([]Allocation, fund.Status) {
	if pm.Len() == 0 {
		return []Allocation{}, fund.StatusInsufficientData
	}

	bySector := make(map[string]*Allocation)
	total := 0.0
	for _, id := range holdings.Instruments() {
		price, ok := pm.Price(0, id)
		if !ok {
			continue
		}
		value := price * holdings[id]
		alloc := c.allocation(bySector, id)
		alloc.Count++
		alloc.Value += value
		total += value
	}

	if len(bySector) == 0 {
		return []Allocation{}, fund.StatusNoSelection
	}
	if total == 0 {
		return []Allocation{}, fund.StatusDegenerateDenominator
	}

	res := collect(bySector)
	for idx := range res {
		res[idx].Weight = res[idx].Value / total
	}
	sortAllocations(res, func(a Allocation) float64 { return a.Value })
	return res, fund.StatusOK
}

func (c *Catalog) allocation(bySector map[string]*Allocation, id string) *Allocation {
	sector := c.Sector(id)
	alloc, ok := bySector[sector]
	if !ok {
		alloc = &Allocation{Sector: sector}
		bySector[sector] = alloc
	}
	return alloc
}

func collect(bySector map[string]*Allocation) []Allocation {
	res := make([]Allocation, 0, len(bySector))
	for _, alloc := range bySector {
		res = append(res, *alloc)
	}
	return res
}

// sortAllocations orders by key descending, then sector name
func sortAllocations(res []Allocation, key func(Allocation) float64) {
	sort.Slice(res, func(i, j int) bool {
		ki, kj := key(res[i]), key(res[j])
		if ki != kj {
			return ki > kj
		}
		return res[i].Sector < res[j].Sector
	})
}
