// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// queryer is satisfied by *bun.DB and bun.Tx.
type queryer interface {
	bun.IDB
	execRawProvider
}

// insertIgnore returns an INSERT statement prefix that silently skips rows
// conflicting with an existing primary key.
func (s *BunStore) insertIgnore(table, columns, values string) string {
	switch s.dbType {
	case "mysql":
		return "INSERT IGNORE INTO " + table + " (" + columns + ") VALUES (" + values + ")"
	default:
		// postgres and sqlite (>= 3.24) share the upsert syntax.
		return "INSERT INTO " + table + " (" + columns + ") VALUES (" + values + ") ON CONFLICT DO NOTHING"
	}
}

// ensureAccount creates a zero balance row for the account if none exists.
func (s *BunStore) ensureAccount(ctx context.Context, db queryer, guildID, memberID string, now time.Time) error {
	q := s.insertIgnore("balances", "guild_id, member_id, balance, last_modified_at", "?, ?, 0, ?")
	_, err := ExecRaw(ctx, db, q, guildID, memberID, now)
	return err
}

// dayStart is 00:00 UTC of the day containing t.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart is 00:00 UTC of the first day of the month containing t.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// upsert inserts m or, when a row with the same conflict key exists,
// updates the listed columns.
func (s *BunStore) upsert(ctx context.Context, db bun.IDB, m interface{}, conflictKey []string, columns ...string) error {
	q := db.NewInsert().Model(m)
	switch s.dbType {
	case "mysql":
		q = q.On("DUPLICATE KEY UPDATE")
		for _, c := range columns {
			q = q.Set(c + " = VALUES(" + c + ")")
		}
	default:
		q = q.On("CONFLICT (" + strings.Join(conflictKey, ", ") + ") DO UPDATE")
		for _, c := range columns {
			q = q.Set(c + " = EXCLUDED." + c)
		}
	}
	_, err := q.Exec(ctx)
	return MapDBError(err)
}
