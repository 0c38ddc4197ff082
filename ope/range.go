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

// Range is a closed interval [Start, End] of unsigned 64-bit integers.
// Start <= End must hold for every constructed Range.
type Range struct {
	Start uint64
	End   uint64
}

// Size returns the number of values in the interval.
func (r Range) Size() uint64 {
	return r.End - r.Start + 1
}

// Contains reports whether n lies inside the interval.
func (r Range) Contains(n uint64) bool {
	return r.Start <= n && n <= r.End
}
