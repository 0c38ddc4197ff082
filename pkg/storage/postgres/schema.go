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

package postgres

import (
	"context"
	"fmt"
)

// Schema statements. All TEXT columns hold unpadded base64 of the
// deterministic ciphertext; t holds the OPE ciphertext.
var schemaStatements = []string{
	`DROP TABLE IF EXISTS Objects`,
	`CREATE TABLE Objects(
		id    TEXT PRIMARY KEY,
		otype TEXT NOT NULL,
		data  TEXT NOT NULL
	)`,
	`DROP TABLE IF EXISTS Associations`,
	`CREATE TABLE Associations(
		id1   TEXT   NOT NULL,
		atype TEXT   NOT NULL,
		id2   TEXT   NOT NULL,
		t     BIGINT NOT NULL,
		data  TEXT   NOT NULL
	)`,
	`CREATE INDEX assoc_lookup ON Associations(id1, atype)`,
}

// Bootstrap drops and recreates the graph schema.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}
	return nil
}
