// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

package ope

import "sync"

// cache is a bounded plaintext-to-ciphertext map. OPE ciphertexts are a
// pure function of key and plaintext, so a hit must equal the recursion's
// result. Once full the cache stops admitting entries; eviction is an open
// hook.
type cache struct {
	mu  sync.RWMutex
	max int
	m   map[uint64]uint64
}

func newCache(max int) *cache {
	c := &cache{max: max}
	if max > 0 {
		c.m = make(map[uint64]uint64, max)
	}
	return c
}

func (c *cache) get(plaintext uint64) (uint64, bool) {
	if c.m == nil {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[plaintext]
	return v, ok
}

func (c *cache) put(plaintext, ciphertext uint64) {
	if c.m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= c.max {
		if _, ok := c.m[plaintext]; !ok {
			return
		}
	}
	c.m[plaintext] = ciphertext
}
