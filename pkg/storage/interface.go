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

// Package storage defines the interface between the query engine and its
// SQL backing store.
package storage

import (
	"context"

	"github.com/etao-project/etao/query"
)

// Store executes translated queries against the graph schema.
type Store interface {
	// Exec runs one translated query and deserializes its result rows.
	Exec(ctx context.Context, sq query.SqlQuery) ([]query.DBRow, error)

	// Ping checks the backing connection.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
