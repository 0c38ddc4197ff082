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

package tao

import (
	"context"
	"fmt"
)

// SeedScript is a small sample social graph. Loading it through the full
// pipeline keeps the seeded rows consistent with the server's encryption
// configuration.
const SeedScript = `
OBJ ADD 1 USER "Alice";
OBJ ADD 2 USER "Cathy";
OBJ ADD 3 LOCATION "Golden Gate";
OBJ ADD 4 POST "Checkin 1";
OBJ ADD 5 POST "Checkin 2";
ASSOC ADD 1 FRIEND 2 100 "";
ASSOC ADD 2 FRIEND 1 100 "";
ASSOC ADD 3 LOCATED 4 200 "";
ASSOC ADD 4 CHECKIN 3 200 "";
ASSOC ADD 5 CHECKIN 3 300 "";
`

// Seed loads the sample graph.
func (s *Server) Seed(ctx context.Context) error {
	resp, err := s.Pipeline(ctx, SeedScript)
	if err != nil {
		return fmt.Errorf("failed to seed graph: %w", err)
	}
	for i, qerr := range resp.Errors {
		if qerr != "" {
			return fmt.Errorf("failed to seed graph: query %d: %s", i+1, qerr)
		}
	}
	return nil
}
