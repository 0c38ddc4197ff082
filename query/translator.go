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
	"strings"
)

// SqlQuery is a SQL template with positional placeholders and its bound
// parameter vector. Field order in the templates is part of the on-wire
// contract with the database schema.
type SqlQuery struct {
	Op       TaoOp
	Template string
	Params   []any
}

// inClauseArgs is implemented by argument variants carrying an id set that
// expands into an IN clause.
type inClauseArgs interface {
	TaoArgs
	idsetLen() int
}

// Translate maps a query to its SQL template and parameter vector. The
// mapping is deterministic: identical queries produce identical output.
func Translate(q Query) (SqlQuery, error) {
	switch q.Op {
	case AssocAdd:
		switch q.Args.(type) {
		case AssocAddArgs, EncAssocAddArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "INSERT INTO Associations(id1, atype, id2, t, data) VALUES ($1, $2, $3, $4, $5)",
			Params:   q.Args.params(),
		}, nil

	case AssocGet:
		in, ok := q.Args.(inClauseArgs)
		if !ok {
			return SqlQuery{}, invalidArgs(q.Op)
		}
		switch q.Args.(type) {
		case AssocGetArgs, EncAssocGetArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		set, err := formatInClause(in.idsetLen(), 2)
		if err != nil {
			return SqlQuery{}, fmt.Errorf("%w in %s", err, q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND id2 in " + set,
			Params:   q.Args.params(),
		}, nil

	case AssocRangeGet:
		in, ok := q.Args.(inClauseArgs)
		if !ok {
			return SqlQuery{}, invalidArgs(q.Op)
		}
		switch q.Args.(type) {
		case AssocRangeGetArgs, EncAssocRangeGetArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		set, err := formatInClause(in.idsetLen(), 4)
		if err != nil {
			return SqlQuery{}, fmt.Errorf("%w in %s", err, q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND t >= $3 AND t <= $4 AND id2 in " + set,
			Params:   q.Args.params(),
		}, nil

	case AssocCount:
		switch q.Args.(type) {
		case AssocCountArgs, EncAssocCountArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "SELECT COUNT(*) FROM Associations WHERE id1 = $1 AND atype = $2",
			Params:   q.Args.params(),
		}, nil

	case AssocRange:
		switch q.Args.(type) {
		case AssocRangeArgs, EncAssocRangeArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND t >= $3 AND t <= $4 ORDER BY t DESC LIMIT $5",
			Params:   q.Args.params(),
		}, nil

	case ObjAdd:
		switch q.Args.(type) {
		case ObjAddArgs, EncObjAddArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "INSERT INTO Objects(id, otype, data) VALUES ($1, $2, $3)",
			Params:   q.Args.params(),
		}, nil

	case ObjGet:
		switch q.Args.(type) {
		case ObjGetArgs, EncObjGetArgs:
		default:
			return SqlQuery{}, invalidArgs(q.Op)
		}
		return SqlQuery{
			Op:       q.Op,
			Template: "SELECT * FROM Objects WHERE id = $1",
			Params:   q.Args.params(),
		}, nil

	default:
		return SqlQuery{}, fmt.Errorf("%w: %s", ErrUnsupported, q.Op)
	}
}

func invalidArgs(op TaoOp) error {
	return fmt.Errorf("%w: invalid arguments for %s", ErrBadRequest, op)
}

// formatInClause renders the placeholder tuple for an expanded id set,
// starting after the given offset: offset 2 with three ids yields
// "($3, $4, $5)".
func formatInClause(n, offset int) (string, error) {
	if n == 0 {
		return "", fmt.Errorf("%w: empty id set", ErrBadRequest)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", i+offset+1)
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}
