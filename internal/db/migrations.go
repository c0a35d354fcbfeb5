// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// migration is one schema version. Versions are applied in slice order and
// recorded in schema_migrations so each runs exactly once.
type migration struct {
	version string
	up      func(ctx context.Context, db bun.IDB) error
}

var migrations = []migration{
	{version: "0001_ledger", up: migrateLedger},
	{version: "0002_companies", up: migrateCompanies},
	{version: "0003_state_council", up: migrateStateCouncil},
	{version: "0004_governance", up: migrateGovernance},
}

func createTables(ctx context.Context, db bun.IDB, models ...interface{}) error {
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func createIndex(ctx context.Context, db bun.IDB, m interface{}, name string, columns ...string) error {
	_, err := db.NewCreateIndex().Model(m).Index(name).Column(columns...).Exec(ctx)
	return err
}

func migrateLedger(ctx context.Context, db bun.IDB) error {
	if err := createTables(ctx, db,
		(*BalanceModel)(nil),
		(*TransactionModel)(nil),
		(*PendingTransferModel)(nil),
		(*CurrencyConfigModel)(nil),
	); err != nil {
		return err
	}
	if err := createIndex(ctx, db, (*TransactionModel)(nil), "idx_transactions_initiator", "guild_id", "initiator_id"); err != nil {
		return err
	}
	if err := createIndex(ctx, db, (*TransactionModel)(nil), "idx_transactions_target", "guild_id", "target_id"); err != nil {
		return err
	}
	return createIndex(ctx, db, (*PendingTransferModel)(nil), "idx_pending_transfers_status", "status")
}

func migrateCompanies(ctx context.Context, db bun.IDB) error {
	if err := createTables(ctx, db, (*LicenseModel)(nil), (*CompanyModel)(nil)); err != nil {
		return err
	}
	if err := createIndex(ctx, db, (*LicenseModel)(nil), "idx_business_licenses_member", "guild_id", "member_id"); err != nil {
		return err
	}
	return createIndex(ctx, db, (*CompanyModel)(nil), "idx_companies_owner", "guild_id", "owner_id")
}

func migrateStateCouncil(ctx context.Context, db bun.IDB) error {
	if err := createTables(ctx, db,
		(*StateCouncilConfigModel)(nil),
		(*DepartmentRoleModel)(nil),
		(*IdentityRecordModel)(nil),
	); err != nil {
		return err
	}
	return createIndex(ctx, db, (*IdentityRecordModel)(nil), "idx_identity_records_member", "guild_id", "member_id")
}

func migrateGovernance(ctx context.Context, db bun.IDB) error {
	if err := createTables(ctx, db,
		(*GovernanceConfigModel)(nil),
		(*ProposalModel)(nil),
		(*ProposalVoterModel)(nil),
		(*VoteModel)(nil),
	); err != nil {
		return err
	}
	return createIndex(ctx, db, (*ProposalModel)(nil), "idx_proposals_status", "status", "deadline")
}

// RunMigrations applies every pending migration, each in its own transaction.
func RunMigrations(ctx context.Context, db *bun.DB, dbType string) error {
	start := time.Now()
	dbLogf("db: starting migrations for %s", dbType)

	if err := ensureSchemaMigrationsTable(ctx, db, dbType); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := QueryRawInto(ctx, db, &exists, "SELECT 1 FROM schema_migrations WHERE version = ?", m.version)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check migration version %s: %w", m.version, err)
		}

		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := m.up(ctx, tx); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.version, err)
			}
			if _, err := ExecRaw(ctx, tx, "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)", m.version, dbTime(time.Now())); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		dbLogf("db: applied migration %s", m.version)
	}

	dbLogf("db: applied migrations for %s in %s", dbType, time.Since(start))
	return nil
}

// AppliedMigrations lists the recorded migration versions in order.
func AppliedMigrations(ctx context.Context, db *bun.DB) ([]string, error) {
	var versions []string
	if err := QueryRawInto(ctx, db, &versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, err
	}
	return versions, nil
}

// ensureSchemaMigrationsTable creates schema_migrations if missing.
// MySQL does not permit TEXT columns to be indexed without a length, so a
// VARCHAR is used there.
func ensureSchemaMigrationsTable(ctx context.Context, db *bun.DB, dbType string) error {
	ddl := `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`
	if dbType == "mysql" {
		ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP)`
	}
	_, err := ExecRaw(ctx, db, ddl)
	return err
}
