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

package query

import (
	"encoding/json"
	"fmt"
)

// DBRow is one deserialized result row.
type DBRow interface {
	isDBRow()
}

// AssocRow is a row of the Associations table.
type AssocRow struct {
	ID1   string `json:"id1"`
	AType string `json:"atype"`
	ID2   string `json:"id2"`
	T     int64  `json:"t"`
	Data  string `json:"data"`
}

// ObjRow is a row of the Objects table.
type ObjRow struct {
	ID    string `json:"id"`
	OType string `json:"otype"`
	Data  string `json:"data"`
}

// Count is a COUNT(*) result.
type Count int64

// NoRes marks an operation with no result rows, or a row that failed to
// decrypt.
type NoRes struct{}

func (AssocRow) isDBRow() {}
func (ObjRow) isDBRow()   {}
func (Count) isDBRow()    {}
func (NoRes) isDBRow()    {}

// Rows is a JSON-round-trippable row list; each element is tagged with its
// variant kind.
type Rows []DBRow

type taggedRow struct {
	Kind  string `json:"kind"`
	ID1   string `json:"id1,omitempty"`
	AType string `json:"atype,omitempty"`
	ID2   string `json:"id2,omitempty"`
	T     int64  `json:"t,omitempty"`
	ID    string `json:"id,omitempty"`
	OType string `json:"otype,omitempty"`
	Data  string `json:"data,omitempty"`
	Count int64  `json:"count,omitempty"`
}

// MarshalJSON renders each row with its variant tag.
func (rs Rows) MarshalJSON() ([]byte, error) {
	out := make([]taggedRow, 0, len(rs))
	for _, r := range rs {
		switch row := r.(type) {
		case AssocRow:
			out = append(out, taggedRow{Kind: "assoc", ID1: row.ID1, AType: row.AType, ID2: row.ID2, T: row.T, Data: row.Data})
		case ObjRow:
			out = append(out, taggedRow{Kind: "obj", ID: row.ID, OType: row.OType, Data: row.Data})
		case Count:
			out = append(out, taggedRow{Kind: "count", Count: int64(row)})
		case NoRes:
			out = append(out, taggedRow{Kind: "nores"})
		default:
			return nil, fmt.Errorf("unknown row variant %T", r)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged rows into their variants.
func (rs *Rows) UnmarshalJSON(data []byte) error {
	var tagged []taggedRow
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	out := make(Rows, 0, len(tagged))
	for _, t := range tagged {
		switch t.Kind {
		case "assoc":
			out = append(out, AssocRow{ID1: t.ID1, AType: t.AType, ID2: t.ID2, T: t.T, Data: t.Data})
		case "obj":
			out = append(out, ObjRow{ID: t.ID, OType: t.OType, Data: t.Data})
		case "count":
			out = append(out, Count(t.Count))
		case "nores":
			out = append(out, NoRes{})
		default:
			return fmt.Errorf("unknown row kind %q", t.Kind)
		}
	}
	*rs = out
	return nil
}
