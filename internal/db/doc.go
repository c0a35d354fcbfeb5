// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db is the gateway layer of econbot.
//
// Every read and write of balances, the ledger, pending transfers, guild
// configuration, companies, licenses, state council data and governance
// proposals goes through a *BunStore. The store wraps a long-lived *bun.DB
// over one of three backends:
//   - postgres (pgx stdlib driver), the production backend. It is the only
//     backend that supports NOTIFY/LISTEN telemetry.
//   - sqlite (modernc.org/sqlite), used for tests and small deployments.
//   - mysql (go-sql-driver/mysql).
//
// Business rules that must hold under concurrency (non-negative balances,
// the transfer cooldown window and the daily transfer limit) are enforced
// inside a single database transaction using conditional UPDATE statements,
// so they are portable across all three backends.
//
// Gateways are grouped into small interfaces (EconomyGateway,
// GovernanceGateway, ...) declared in store.go. The service layer depends on
// those interfaces; *BunStore implements all of them.
//
// Testing notes
//   - Use WithTestStore for a migrated, in-memory sqlite store per test.
//   - Postgres-only statements (pg_notify) are covered with go-sqlmock.
package db
