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

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
)

// tapeBlockBytes is the amount of keystream expanded per refill; each byte
// yields eight coins, most significant bit first.
const tapeBlockBytes = 16

// PRNG is a deterministic bit tape keyed by (key, seed). The tape is the
// AES-256-CTR keystream under the key HMAC-SHA256(key, decimal(seed)), with
// a fixed all-zero IV; the per-seed derived key is what makes the zero IV
// sound. The same (key, seed) always replays the same tape, so encrypt and
// decrypt walk identical recursion paths.
type PRNG struct {
	stream cipher.Stream
	bits   []byte
}

// NewPRNG derives the tape cipher for the given key and seed.
func NewPRNG(key []byte, seed uint64) (*PRNG, error) {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strconv.FormatUint(seed, 10)))
	tapeKey := mac.Sum(nil)

	block, err := aes.NewCipher(tapeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tape cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	return &PRNG{stream: cipher.NewCTR(block, iv)}, nil
}

// refill expands the next keystream block into 128 buffered coins.
func (p *PRNG) refill() {
	buf := make([]byte, tapeBlockBytes)
	p.stream.XORKeyStream(buf, buf)
	for _, b := range buf {
		for shift := 7; shift >= 0; shift-- {
			p.bits = append(p.bits, (b>>uint(shift))&1)
		}
	}
}

// NextBit pops the next coin from the tape.
func (p *PRNG) NextBit() byte {
	if len(p.bits) == 0 {
		p.refill()
	}
	b := p.bits[0]
	p.bits = p.bits[1:]
	return b
}

// Draw packs the next 32 coins, most significant bit first, into an unsigned
// value and scales it to [0, 1].
func (p *PRNG) Draw() float64 {
	var v uint32
	for i := 0; i < 32; i++ {
		v = v<<1 | uint32(p.NextBit())
	}
	return float64(v) / float64(math.MaxUint32)
}
