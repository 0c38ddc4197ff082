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

// Package ope implements Boldyreva-style order-preserving encryption over
// unsigned integer ranges. For plaintexts p1 < p2 inside the input range,
// ciphertexts satisfy Encrypt(p1) < Encrypt(p2) inside the output range, so
// SQL range predicates and ORDER BY work directly on ciphertexts.
package ope

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for plaintexts or ciphertexts outside the
	// configured ranges.
	ErrOutOfRange = errors.New("value out of range")
	// ErrNotFound is returned when a decrypt descends to a singleton whose
	// re-derived ciphertext disagrees with the input.
	ErrNotFound = errors.New("ciphertext not found")
	// ErrInvalidRange is returned when the recursion invariants are violated.
	ErrInvalidRange = errors.New("invalid range")
)

// Default ranges. The output range must be strictly larger than the input
// range for the recursion to terminate at singletons.
const (
	DefaultInRangeStart  uint64 = 1
	DefaultInRangeEnd    uint64 = 1<<16 - 2
	DefaultOutRangeStart uint64 = 1
	DefaultOutRangeEnd   uint64 = 1<<32 - 2
)

// OPE holds the key and range configuration. The key and ranges are
// immutable after construction; the optional cache carries its own lock, so
// a single OPE value is safe for concurrent use.
type OPE struct {
	key      []byte
	inRange  Range
	outRange Range
	cache    *cache
}

// New creates an OPE instance over the given ranges. A cacheSize of zero
// disables the plaintext-to-ciphertext cache.
func New(key []byte, in, out Range, cacheSize int) (*OPE, error) {
	if in.Start > in.End || out.Start > out.End {
		return nil, fmt.Errorf("%w: start exceeds end", ErrInvalidRange)
	}
	if in.Size() >= out.Size() {
		return nil, fmt.Errorf("%w: output range must be larger than input range", ErrInvalidRange)
	}
	return &OPE{
		key:      key,
		inRange:  in,
		outRange: out,
		cache:    newCache(cacheSize),
	}, nil
}

// NewDefault creates an OPE instance over the default ranges.
func NewDefault(key []byte, cacheSize int) (*OPE, error) {
	return New(key,
		Range{Start: DefaultInRangeStart, End: DefaultInRangeEnd},
		Range{Start: DefaultOutRangeStart, End: DefaultOutRangeEnd},
		cacheSize)
}

// InRange returns the configured plaintext range.
func (o *OPE) InRange() Range { return o.inRange }

// OutRange returns the configured ciphertext range.
func (o *OPE) OutRange() Range { return o.outRange }

// Encrypt maps a plaintext from the input range to a ciphertext in the
// output range.
func (o *OPE) Encrypt(plaintext uint64) (uint64, error) {
	if !o.inRange.Contains(plaintext) {
		return 0, fmt.Errorf("%w: plaintext %d", ErrOutOfRange, plaintext)
	}
	if c, ok := o.cache.get(plaintext); ok {
		return c, nil
	}
	c, err := o.encryptRecursive(plaintext, o.inRange, o.outRange)
	if err != nil {
		return 0, err
	}
	o.cache.put(plaintext, c)
	return c, nil
}

// Decrypt inverts Encrypt. It fails with ErrNotFound when the descent
// reaches a singleton that does not reproduce the ciphertext, i.e. the
// ciphertext was never produced by this key and range configuration.
func (o *OPE) Decrypt(ciphertext uint64) (uint64, error) {
	if !o.outRange.Contains(ciphertext) {
		return 0, fmt.Errorf("%w: ciphertext %d", ErrOutOfRange, ciphertext)
	}
	return o.decryptRecursive(ciphertext, o.inRange, o.outRange)
}

// encryptRecursive walks the shared descent. Each level derives a fresh
// tape from the midpoint fingerprint, splits both ranges at the sampled
// point, and recurses on the half holding the plaintext. The input range
// shrinks strictly each step, so the singleton base is always reached.
func (o *OPE) encryptRecursive(plaintext uint64, in, out Range) (uint64, error) {
	inSize := in.Size()
	outSize := out.Size()
	if inSize > outSize {
		return 0, fmt.Errorf("%w: input range %d exceeds output range %d", ErrInvalidRange, inSize, outSize)
	}

	mid := out.Start - 1 + (outSize+1)/2

	if inSize == 1 {
		prng, err := NewPRNG(o.key, in.Start)
		if err != nil {
			return 0, err
		}
		return uniformSample(out, prng), nil
	}

	prng, err := NewPRNG(o.key, mid)
	if err != nil {
		return 0, err
	}
	split, err := hgdSample(in, out, mid, prng)
	if err != nil {
		return 0, err
	}

	if plaintext <= split {
		return o.encryptRecursive(plaintext, Range{Start: in.Start, End: split}, Range{Start: out.Start, End: mid})
	}
	return o.encryptRecursive(plaintext, Range{Start: split + 1, End: in.End}, Range{Start: mid + 1, End: out.End})
}

// decryptRecursive mirrors encryptRecursive but branches on which half of
// the output range holds the ciphertext.
func (o *OPE) decryptRecursive(ciphertext uint64, in, out Range) (uint64, error) {
	inSize := in.Size()
	outSize := out.Size()
	if inSize > outSize {
		return 0, fmt.Errorf("%w: input range %d exceeds output range %d", ErrInvalidRange, inSize, outSize)
	}

	mid := out.Start - 1 + (outSize+1)/2

	if inSize == 1 {
		prng, err := NewPRNG(o.key, in.Start)
		if err != nil {
			return 0, err
		}
		if uniformSample(out, prng) == ciphertext {
			return in.Start, nil
		}
		return 0, fmt.Errorf("%w: ciphertext %d", ErrNotFound, ciphertext)
	}

	prng, err := NewPRNG(o.key, mid)
	if err != nil {
		return 0, err
	}
	split, err := hgdSample(in, out, mid, prng)
	if err != nil {
		return 0, err
	}

	if ciphertext <= mid {
		return o.decryptRecursive(ciphertext, Range{Start: in.Start, End: split}, Range{Start: out.Start, End: mid})
	}
	return o.decryptRecursive(ciphertext, Range{Start: split + 1, End: in.End}, Range{Start: mid + 1, End: out.End})
}

// uniformSample picks a value from the range by binary search on tape
// coins: coin 0 keeps the lower half, coin 1 the upper. Consumes about
// log2(size) coins.
func uniformSample(r Range, prng *PRNG) uint64 {
	cur := r
	for cur.Size() > 1 {
		mid := (cur.Start + cur.End) / 2
		if prng.NextBit() == 0 {
			cur.End = mid
		} else {
			cur.Start = mid + 1
		}
	}
	return cur.Start
}
