// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/econbot/econbot/internal/model"
)

// ErrDuplicate is returned when attempting to insert a record that already exists.
var ErrDuplicate = errors.New("duplicate record")

// ErrUnsupported is returned for operations the active backend cannot perform,
// such as NOTIFY on sqlite.
var ErrUnsupported = errors.New("operation not supported by database backend")

// MapDBError inspects low-level driver errors and maps common conditions to
// package-level sentinel errors. sql.ErrNoRows becomes model.ErrNotFound and
// constraint violations become ErrDuplicate. The mapping is string based to
// avoid importing SQL driver packages here.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	return err
}
