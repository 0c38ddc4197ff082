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

// Package health reports the server's view of its backing store.
package health

import (
	"context"
	"time"

	"github.com/etao-project/etao/pkg/version"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

const pingTimeout = 2 * time.Second

// Pinger checks a backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseStatus describes the store connection.
type DatabaseStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Status is the health report.
type Status struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	Database  DatabaseStatus `json:"database"`
}

// Checker evaluates server health.
type Checker struct {
	db Pinger
}

// NewChecker creates a health checker over the given store.
func NewChecker(db Pinger) *Checker {
	return &Checker{db: db}
}

// Check pings the store with a short deadline and reports the result.
func (c *Checker) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := Status{
		Status:    StatusHealthy,
		Version:   version.Get().Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  DatabaseStatus{Connected: true},
	}
	if err := c.db.Ping(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Database = DatabaseStatus{Connected: false, Error: err.Error()}
	}
	return status
}
