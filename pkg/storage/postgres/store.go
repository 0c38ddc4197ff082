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

// Package postgres implements the storage.Store interface for PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etao-project/etao/query"
)

// Store executes translated queries through a pgx connection pool. The
// pool is safe for concurrent use; the store holds no other state.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over a new connection pool and verifies the
// connection.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Exec runs one translated query and deserializes the result rows
// according to the operation's row shape.
func (s *Store) Exec(ctx context.Context, sq query.SqlQuery) ([]query.DBRow, error) {
	switch sq.Op.Shape() {
	case query.ShapeNone:
		if _, err := s.pool.Exec(ctx, sq.Template, sq.Params...); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", sq.Op, err)
		}
		return []query.DBRow{query.NoRes{}}, nil

	case query.ShapeCount:
		var n int64
		if err := s.pool.QueryRow(ctx, sq.Template, sq.Params...).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", sq.Op, err)
		}
		return []query.DBRow{query.Count(n)}, nil

	case query.ShapeAssoc:
		rows, err := s.pool.Query(ctx, sq.Template, sq.Params...)
		if err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", sq.Op, err)
		}
		defer rows.Close()

		var out []query.DBRow
		for rows.Next() {
			var r query.AssocRow
			if err := rows.Scan(&r.ID1, &r.AType, &r.ID2, &r.T, &r.Data); err != nil {
				return nil, fmt.Errorf("failed to scan association row: %w", err)
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read association rows: %w", err)
		}
		return out, nil

	case query.ShapeObj:
		rows, err := s.pool.Query(ctx, sq.Template, sq.Params...)
		if err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", sq.Op, err)
		}
		defer rows.Close()

		var out []query.DBRow
		for rows.Next() {
			var r query.ObjRow
			if err := rows.Scan(&r.ID, &r.OType, &r.Data); err != nil {
				return nil, fmt.Errorf("failed to scan object row: %w", err)
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read object rows: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown row shape for %s", sq.Op)
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
