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
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The grammar recognizes a semicolon-terminated sequence of statements.
// Each statement is a target keyword, an operation keyword and positional
// arguments: integers, quoted strings, bracketed integer lists or bareword
// type keywords. Argument shapes are validated per operation after the
// grammar pass.

type scriptNode struct {
	Statements []*statementNode `parser:"( @@ ';' )+"`
}

type statementNode struct {
	Pos    lexer.Position
	Target string     `parser:"@('ASSOC' | 'OBJ')"`
	Op     string     `parser:"@Ident"`
	Args   []*argNode `parser:"@@*"`
}

type argNode struct {
	Num  *int64    `parser:"  @Int"`
	Str  *string   `parser:"| @String"`
	List *listNode `parser:"| @@"`
	Word *string   `parser:"| @Ident"`
}

type listNode struct {
	Nums []int64 `parser:"'[' ( @Int ( ',' @Int )* )? ']'"`
}

var taoLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Ident", Pattern: `[A-Z]+`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Punct", Pattern: `[\[\],;]`},
})

var taoParser = participle.MustBuild[scriptNode](
	participle.Lexer(taoLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace"),
)

// Parse parses a query script into its statement batch. Any grammar or
// argument-shape failure rejects the whole script.
func Parse(source string) ([]Query, error) {
	node, err := taoParser.ParseString("", source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	queries := make([]Query, 0, len(node.Statements))
	for _, stmt := range node.Statements {
		q, err := buildQuery(stmt)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func buildQuery(stmt *statementNode) (Query, error) {
	op, err := parseOp(stmt.Target, stmt.Op)
	if err != nil {
		return Query{}, err
	}

	args := stmtArgs{stmt: stmt}
	switch op {
	case AssocAdd:
		if err := args.arity(5); err != nil {
			return Query{}, err
		}
		id1 := args.id(0)
		atype := args.assocType(1)
		id2 := args.id(2)
		t := args.num(3)
		data := args.str(4)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: AssocAddArgs{ID1: id1, AType: atype, ID2: id2, Time: t, Data: data}}, nil

	case AssocGet:
		if err := args.arity(3); err != nil {
			return Query{}, err
		}
		id := args.id(0)
		atype := args.assocType(1)
		idset := args.idset(2)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: AssocGetArgs{ID: id, AType: atype, IDSet: idset}}, nil

	case AssocRangeGet:
		if err := args.arity(5); err != nil {
			return Query{}, err
		}
		id := args.id(0)
		atype := args.assocType(1)
		idset := args.idset(2)
		tlo := args.num(3)
		thi := args.num(4)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: AssocRangeGetArgs{ID: id, AType: atype, IDSet: idset, TStart: tlo, TEnd: thi}}, nil

	case AssocCount:
		if err := args.arity(2); err != nil {
			return Query{}, err
		}
		id := args.id(0)
		atype := args.assocType(1)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: AssocCountArgs{ID: id, AType: atype}}, nil

	case AssocRange:
		if err := args.arity(5); err != nil {
			return Query{}, err
		}
		id := args.id(0)
		atype := args.assocType(1)
		tlo := args.num(2)
		thi := args.num(3)
		lim := args.num(4)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: AssocRangeArgs{ID: id, AType: atype, TStart: tlo, TEnd: thi, Lim: lim}}, nil

	case ObjAdd:
		if err := args.arity(3); err != nil {
			return Query{}, err
		}
		id := args.id(0)
		otype := args.objType(1)
		data := args.str(2)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: ObjAddArgs{ID: id, OType: otype, Data: data}}, nil

	case ObjGet:
		if err := args.arity(1); err != nil {
			return Query{}, err
		}
		id := args.id(0)
		if args.err != nil {
			return Query{}, args.err
		}
		return Query{Op: op, Args: ObjGetArgs{ID: id}}, nil

	default:
		// Recognized but unimplemented; surfaced per query at dispatch.
		return Query{Op: op}, nil
	}
}

func parseOp(target, op string) (TaoOp, error) {
	switch target + " " + op {
	case "ASSOC ADD":
		return AssocAdd, nil
	case "ASSOC GET":
		return AssocGet, nil
	case "ASSOC RGET":
		return AssocRangeGet, nil
	case "ASSOC COUNT":
		return AssocCount, nil
	case "ASSOC RANGE", "ASSOC TRANGE":
		return AssocRange, nil
	case "ASSOC DELETE":
		return AssocDelete, nil
	case "ASSOC CHGTYPE":
		return AssocChangeType, nil
	case "OBJ ADD":
		return ObjAdd, nil
	case "OBJ GET":
		return ObjGet, nil
	case "OBJ UPDATE":
		return ObjUpdate, nil
	case "OBJ DELETE":
		return ObjDelete, nil
	default:
		return 0, fmt.Errorf("%w: unknown operation %s %s", ErrBadRequest, target, op)
	}
}

// stmtArgs extracts typed positional arguments, recording the first
// mismatch instead of failing on every access.
type stmtArgs struct {
	stmt *statementNode
	err  error
}

func (a *stmtArgs) arity(n int) error {
	if len(a.stmt.Args) != n {
		return fmt.Errorf("%w: %s %s takes %d arguments, got %d at %s",
			ErrBadRequest, a.stmt.Target, a.stmt.Op, n, len(a.stmt.Args), a.stmt.Pos)
	}
	return nil
}

func (a *stmtArgs) fail(i int, want string) {
	if a.err == nil {
		a.err = fmt.Errorf("%w: %s %s argument %d must be %s",
			ErrBadRequest, a.stmt.Target, a.stmt.Op, i+1, want)
	}
}

func (a *stmtArgs) num(i int) int64 {
	arg := a.stmt.Args[i]
	if arg.Num == nil {
		a.fail(i, "an integer")
		return 0
	}
	return *arg.Num
}

func (a *stmtArgs) id(i int) uint64 {
	n := a.num(i)
	if n < 0 {
		a.fail(i, "a non-negative identifier")
		return 0
	}
	return uint64(n)
}

func (a *stmtArgs) str(i int) string {
	arg := a.stmt.Args[i]
	if arg.Str == nil {
		a.fail(i, "a quoted string")
		return ""
	}
	return *arg.Str
}

func (a *stmtArgs) idset(i int) []uint64 {
	arg := a.stmt.Args[i]
	if arg.List == nil {
		a.fail(i, "an id list")
		return nil
	}
	ids := make([]uint64, 0, len(arg.List.Nums))
	for _, n := range arg.List.Nums {
		if n < 0 {
			a.fail(i, "a list of non-negative identifiers")
			return nil
		}
		ids = append(ids, uint64(n))
	}
	return ids
}

func (a *stmtArgs) assocType(i int) AssocType {
	arg := a.stmt.Args[i]
	if arg.Word == nil {
		a.fail(i, "an association type keyword")
		return 0
	}
	t, err := ParseAssocType(*arg.Word)
	if err != nil && a.err == nil {
		a.err = err
	}
	return t
}

func (a *stmtArgs) objType(i int) ObjType {
	arg := a.stmt.Args[i]
	if arg.Word == nil {
		a.fail(i, "an object type keyword")
		return 0
	}
	t, err := ParseObjType(*arg.Word)
	if err != nil && a.err == nil {
		a.err = err
	}
	return t
}
