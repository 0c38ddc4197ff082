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
	"fmt"
	"math"
)

// H2PE rejection constants (ACM TOMS algorithm 668).
const (
	hgdD1 = 1.7155277699214135
	hgdD2 = 0.8989161620588988
)

// logGammaCoeff are the Bernoulli coefficients of the Stirling expansion.
var logGammaCoeff = [10]float64{
	8.333333333333333e-02, -2.777777777777778e-03,
	7.936507936507937e-04, -5.952380952380952e-04,
	8.417508417508418e-04, -1.917526917526918e-03,
	6.410256410256410e-03, -2.955065359477124e-02,
	1.796443723688307e-01, -1.39243221690590e+00,
}

// logGamma evaluates ln Γ(x) for positive integer x. Small arguments are
// shifted up to 7 before the asymptotic series and corrected back down by
// repeated division, so the series never sees an argument it cannot handle.
func logGamma(x uint64) float64 {
	if x == 1 || x == 2 {
		return 0.0
	}

	x0 := float64(x)
	var n uint64
	if x <= 7 {
		n = 7 - x
		x0 = float64(x + n)
	}

	x2 := 1.0 / (x0 * x0)
	gl0 := logGammaCoeff[9]
	for i := 8; i >= 0; i-- {
		gl0 = gl0*x2 + logGammaCoeff[i]
	}

	gl := gl0/x0 + 0.5*math.Log(2.0*math.Pi) + (x0-0.5)*math.Log(x0) - x0

	if x <= 7 {
		for i := uint64(1); i <= n; i++ {
			gl -= math.Log(x0 - 1.0)
			x0 -= 1.0
		}
	}
	return gl
}

// hgdSample draws from Hypergeo(N=out.Size, K=in.Size, n=seed-out.Start+1)
// using the given tape as the only source of randomness, and maps the draw
// to a split point inside the input range. The draw is the count of input
// values assigned to the lower half of the output range.
func hgdSample(in, out Range, seed uint64, prng *PRNG) (uint64, error) {
	inSize := in.Size()
	outSize := out.Size()

	if inSize == 0 || outSize == 0 || inSize > outSize {
		return 0, fmt.Errorf("%w: input range %d exceeds output range %d", ErrInvalidRange, inSize, outSize)
	}
	if !out.Contains(seed) {
		return 0, fmt.Errorf("%w: sampler seed %d outside output range", ErrInvalidRange, seed)
	}

	index := seed - out.Start + 1

	if inSize == outSize {
		// Equal ranges pin the mapping completely.
		return in.Start + index - 1, nil
	}

	var sample uint64
	if index > 10 {
		sample = hgdRejection(inSize, outSize, index, prng)
	} else {
		sample = hgdInverse(inSize, outSize, index, prng)
	}

	var split uint64
	if sample == 0 {
		split = in.Start
	} else {
		split = in.Start + sample - 1
	}
	if split > in.End {
		split = in.End
	}
	if !in.Contains(split) {
		return 0, fmt.Errorf("%w: sampled split %d outside input range", ErrInvalidRange, split)
	}
	return split, nil
}

// hgdRejection is the H2PE acceptance-rejection branch, used when the
// number of draws exceeds 10.
func hgdRejection(inSize, outSize, index uint64, prng *PRNG) uint64 {
	good := inSize
	bad := outSize - inSize
	size := outSize

	minGB := good
	maxGB := bad
	if bad < good {
		minGB, maxGB = bad, good
	}
	minSample := index
	if size-index < minSample {
		minSample = size - index
	}

	d4 := float64(minGB) / float64(size)
	d5 := 1.0 - d4
	d6 := float64(minSample)*d4 + 0.5
	d7 := math.Sqrt(float64(size-minGB)*float64(index)*d4*d5/float64(size-1) + 0.5)
	d8 := hgdD1*d7 + hgdD2

	d9 := (minSample + 1) * (minGB + 1) / (size + 2)
	d10 := logGamma(d9+1) + logGamma(minGB-d9+1) + logGamma(minSample-d9+1) + logGamma(maxGB-minSample+d9+1)

	d11 := minSample
	if minGB < d11 {
		d11 = minGB
	}
	if bound := uint64(math.Floor(d6 + 16.0*d7)); bound < d11 {
		d11 = bound
	}

	var z uint64
	for {
		x := prng.Draw()
		y := prng.Draw()
		w := d6 + d8*(y-0.5)/x

		if w < 0.0 || w >= float64(d11) {
			continue
		}
		z = uint64(math.Floor(w))
		t := d10 - (logGamma(z+1) + logGamma(minGB-z+1) + logGamma(minSample-z+1) + logGamma(maxGB-minSample+z+1))

		if x*(4.0-x)-3.0 <= t {
			break
		}
		if x*(x-t) >= 1.0 {
			continue
		}
		if 2.0*math.Log(x) <= t {
			break
		}
	}

	sample := int64(z)
	if good > bad {
		sample = int64(minSample) - sample
	}
	if minSample < index {
		sample = int64(good) - sample
	}
	if sample < 0 {
		sample = 0
	}
	return uint64(sample)
}

// hgdInverse is the inverse-transform branch for 10 or fewer draws.
func hgdInverse(inSize, outSize, index uint64, prng *PRNG) uint64 {
	good := inSize
	bad := outSize - inSize

	d1 := good + bad - index
	d2 := good
	if bad < good {
		d2 = bad
	}

	y := int64(d2)
	k := index
	for y > 0 {
		u := prng.Draw()
		y -= int64(math.Floor(u + float64(y)/float64(d1+k)))
		k--
		if k == 0 {
			break
		}
	}

	z := int64(d2) - y
	if good > bad {
		z = int64(index) - z
	}
	if z < 0 {
		z = 0
	}
	return uint64(z)
}
