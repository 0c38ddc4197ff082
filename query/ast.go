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

// Package query implements the TAO query pipeline: the textual query
// language, its typed AST, the encryption facade over query arguments and
// result rows, and the translation of queries to parameterized SQL.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadRequest is returned for grammar failures, unknown keywords and
	// wrong argument shapes.
	ErrBadRequest = errors.New("bad request")
	// ErrUnsupported is returned for operations the grammar recognizes but
	// the engine intentionally does not implement.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrCrypto is returned for AEAD, base64 and key initialization
	// failures.
	ErrCrypto = errors.New("crypto failure")
)

// TaoOp tags a query with its operation.
type TaoOp int

const (
	AssocAdd TaoOp = iota
	AssocGet
	AssocRangeGet
	AssocCount
	AssocRange
	AssocDelete
	AssocChangeType
	ObjAdd
	ObjGet
	ObjUpdate
	ObjDelete
)

// String returns the statement spelling, e.g. "ASSOC RGET".
func (op TaoOp) String() string {
	switch op {
	case AssocAdd:
		return "ASSOC ADD"
	case AssocGet:
		return "ASSOC GET"
	case AssocRangeGet:
		return "ASSOC RGET"
	case AssocCount:
		return "ASSOC COUNT"
	case AssocRange:
		return "ASSOC RANGE"
	case AssocDelete:
		return "ASSOC DELETE"
	case AssocChangeType:
		return "ASSOC CHGTYPE"
	case ObjAdd:
		return "OBJ ADD"
	case ObjGet:
		return "OBJ GET"
	case ObjUpdate:
		return "OBJ UPDATE"
	case ObjDelete:
		return "OBJ DELETE"
	default:
		return "UNKNOWN"
	}
}

// RowShape describes the result rows an operation produces.
type RowShape int

const (
	ShapeNone RowShape = iota
	ShapeAssoc
	ShapeObj
	ShapeCount
)

// Shape returns the result row shape of the operation.
func (op TaoOp) Shape() RowShape {
	switch op {
	case AssocGet, AssocRangeGet, AssocRange:
		return ShapeAssoc
	case AssocCount:
		return ShapeCount
	case ObjGet:
		return ShapeObj
	default:
		return ShapeNone
	}
}

// ObjType enumerates graph node types.
type ObjType int

const (
	ObjUser ObjType = iota
	ObjComment
	ObjLocation
	ObjPost
)

// ParseObjType maps a statement keyword to its ObjType.
func ParseObjType(s string) (ObjType, error) {
	switch s {
	case "USER":
		return ObjUser, nil
	case "COMMENT":
		return ObjComment, nil
	case "LOCATION":
		return ObjLocation, nil
	case "POST":
		return ObjPost, nil
	default:
		return 0, fmt.Errorf("%w: unknown object type %q", ErrBadRequest, s)
	}
}

// String returns the display form used as the persisted tag.
func (t ObjType) String() string {
	switch t {
	case ObjUser:
		return "User"
	case ObjComment:
		return "Comment"
	case ObjLocation:
		return "Location"
	case ObjPost:
		return "Post"
	default:
		return "Unknown"
	}
}

// Keyword returns the statement spelling.
func (t ObjType) Keyword() string {
	return strings.ToUpper(t.String())
}

// AssocType enumerates directed edge types.
type AssocType int

const (
	AssocFriend AssocType = iota
	AssocLoc
	AssocCheckIn
	AssocComment
	AssocAuthored
	AssocAuthoredBy
	AssocLikes
	AssocLikedBy
)

// ParseAssocType maps a statement keyword to its AssocType.
func ParseAssocType(s string) (AssocType, error) {
	switch s {
	case "FRIEND":
		return AssocFriend, nil
	case "LOCATED":
		return AssocLoc, nil
	case "CHECKIN":
		return AssocCheckIn, nil
	case "COMMENT":
		return AssocComment, nil
	case "AUTHORED":
		return AssocAuthored, nil
	case "AUTHOREDBY":
		return AssocAuthoredBy, nil
	case "LIKES":
		return AssocLikes, nil
	case "LIKEDBY":
		return AssocLikedBy, nil
	default:
		return 0, fmt.Errorf("%w: unknown association type %q", ErrBadRequest, s)
	}
}

// String returns the display form used as the persisted tag.
func (t AssocType) String() string {
	switch t {
	case AssocFriend:
		return "Friend"
	case AssocLoc:
		return "Loc"
	case AssocCheckIn:
		return "CheckIn"
	case AssocComment:
		return "Comment"
	case AssocAuthored:
		return "Authored"
	case AssocAuthoredBy:
		return "AuthoredBy"
	case AssocLikes:
		return "Likes"
	case AssocLikedBy:
		return "LikedBy"
	default:
		return "Unknown"
	}
}

// Keyword returns the statement spelling.
func (t AssocType) Keyword() string {
	switch t {
	case AssocLoc:
		return "LOCATED"
	default:
		return strings.ToUpper(t.String())
	}
}

// TaoArgs is the argument variant of a query; the concrete type is
// constrained by the operation tag.
type TaoArgs interface {
	// params returns the positional SQL parameter values in wire order.
	params() []any
}

// AssocAddArgs carries the arguments of ASSOC ADD.
type AssocAddArgs struct {
	ID1   uint64
	AType AssocType
	ID2   uint64
	Time  int64
	Data  string
}

func (a AssocAddArgs) params() []any {
	return []any{int64(a.ID1), a.AType.String(), int64(a.ID2), a.Time, a.Data}
}

// AssocGetArgs carries the arguments of ASSOC GET.
type AssocGetArgs struct {
	ID    uint64
	AType AssocType
	IDSet []uint64
}

func (a AssocGetArgs) params() []any {
	out := []any{int64(a.ID), a.AType.String()}
	for _, id := range a.IDSet {
		out = append(out, int64(id))
	}
	return out
}

func (a AssocGetArgs) idsetLen() int { return len(a.IDSet) }

// AssocRangeGetArgs carries the arguments of ASSOC RGET.
type AssocRangeGetArgs struct {
	ID     uint64
	AType  AssocType
	IDSet  []uint64
	TStart int64
	TEnd   int64
}

func (a AssocRangeGetArgs) params() []any {
	out := []any{int64(a.ID), a.AType.String(), a.TStart, a.TEnd}
	for _, id := range a.IDSet {
		out = append(out, int64(id))
	}
	return out
}

func (a AssocRangeGetArgs) idsetLen() int { return len(a.IDSet) }

// AssocCountArgs carries the arguments of ASSOC COUNT.
type AssocCountArgs struct {
	ID    uint64
	AType AssocType
}

func (a AssocCountArgs) params() []any {
	return []any{int64(a.ID), a.AType.String()}
}

// AssocRangeArgs carries the arguments of ASSOC RANGE and ASSOC TRANGE.
type AssocRangeArgs struct {
	ID     uint64
	AType  AssocType
	TStart int64
	TEnd   int64
	Lim    int64
}

func (a AssocRangeArgs) params() []any {
	return []any{int64(a.ID), a.AType.String(), a.TStart, a.TEnd, a.Lim}
}

// ObjAddArgs carries the arguments of OBJ ADD.
type ObjAddArgs struct {
	ID    uint64
	OType ObjType
	Data  string
}

func (a ObjAddArgs) params() []any {
	return []any{int64(a.ID), a.OType.String(), a.Data}
}

// ObjGetArgs carries the arguments of OBJ GET.
type ObjGetArgs struct {
	ID uint64
}

func (a ObjGetArgs) params() []any {
	return []any{int64(a.ID)}
}

// Query is one parsed statement.
type Query struct {
	Op   TaoOp
	Args TaoArgs
}

// String renders the query back to statement text.
func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Op.String())
	switch a := q.Args.(type) {
	case AssocAddArgs:
		fmt.Fprintf(&b, " %d %s %d %d %q", a.ID1, a.AType.Keyword(), a.ID2, a.Time, a.Data)
	case AssocGetArgs:
		fmt.Fprintf(&b, " %d %s %s", a.ID, a.AType.Keyword(), renderIDSet(a.IDSet))
	case AssocRangeGetArgs:
		fmt.Fprintf(&b, " %d %s %s %d %d", a.ID, a.AType.Keyword(), renderIDSet(a.IDSet), a.TStart, a.TEnd)
	case AssocCountArgs:
		fmt.Fprintf(&b, " %d %s", a.ID, a.AType.Keyword())
	case AssocRangeArgs:
		fmt.Fprintf(&b, " %d %s %d %d %d", a.ID, a.AType.Keyword(), a.TStart, a.TEnd, a.Lim)
	case ObjAddArgs:
		fmt.Fprintf(&b, " %d %s %q", a.ID, a.OType.Keyword(), a.Data)
	case ObjGetArgs:
		fmt.Fprintf(&b, " %d", a.ID)
	}
	b.WriteString(";")
	return b.String()
}

func renderIDSet(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
