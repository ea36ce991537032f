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

package common

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

var (
	ErrInvalidCacheSize = errors.New("cache size must be positive")
)

// SnapshotCache holds lz4 compressed rendered output keyed by the content
// hash of the inputs that produced it
type SnapshotCache struct {
	cache *lru.Cache
}

// NewSnapshotCache creates a cache holding at most entries items
func NewSnapshotCache(entries int) (*SnapshotCache, error) {
	if entries <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCacheSize, entries)
	}

	cache, err := lru.New(entries)
	if err != nil {
		log.Error().Err(err).Msg("could not create LRU cache")
		return nil, err
	}

	return &SnapshotCache{cache: cache}, nil
}

// SnapshotKey hashes every part, e.g. workbook bytes and a settings
// fingerprint, into a hex encoded blake3 digest. Parts are length prefixed so
// moving bytes between parts changes the key.
func SnapshotKey(parts ...[]byte) string {
	h := blake3.New()
	for _, part := range parts {
		if _, err := fmt.Fprintf(h, "%d:", len(part)); err != nil {
			log.Error().Stack().Err(err).Msg("could not write length to blake3 hasher")
		}
		if _, err := h.Write(part); err != nil {
			log.Error().Stack().Err(err).Msg("could not write part to blake3 hasher")
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Set compresses data and stores it under key
func (c *SnapshotCache) Set(key string, data []byte) error {
	compressed, err := Compress(data)
	if err != nil {
		log.Error().Err(err).Str("Key", key).Msg("could not compress cache entry")
		return err
	}
	c.cache.Add(key, compressed)
	return nil
}

// Get returns the decompressed data stored under key
func (c *SnapshotCache) Get(key string) ([]byte, bool, error) {
	val, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}

	data, err := Decompress(val.([]byte))
	if err != nil {
		log.Error().Err(err).Str("Key", key).Msg("could not decompress cache entry")
		return nil, false, err
	}
	return data, true, nil
}

// Len returns the number of cached entries
func (c *SnapshotCache) Len() int {
	return c.cache.Len()
}

// Purge empties the cache
func (c *SnapshotCache) Purge() {
	c.cache.Purge()
}
