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

	"github.com/econbot/econbot/internal/model"
	"github.com/uptrace/bun"
)

// GetStateCouncilConfig returns the guild's state council setup or
// model.ErrNotFound when the council has not been configured.
func (s *BunStore) GetStateCouncilConfig(ctx context.Context, guildID string) (model.StateCouncilConfig, error) {
	var row StateCouncilConfigModel
	if err := s.bun.NewSelect().Model(&row).Where("guild_id = ?", guildID).Limit(1).Scan(ctx); err != nil {
		return model.StateCouncilConfig{}, MapDBError(err)
	}
	var roles []DepartmentRoleModel
	if err := s.bun.NewSelect().Model(&roles).Where("guild_id = ?", guildID).Scan(ctx); err != nil {
		return model.StateCouncilConfig{}, MapDBError(err)
	}
	cfg := model.StateCouncilConfig{
		GuildID:              row.GuildID,
		LeaderID:             row.LeaderID,
		LeaderRoleID:         row.LeaderRoleID,
		SuspectRoleID:        row.SuspectRoleID,
		MonthlyIssuanceLimit: row.MonthlyIssuanceLimit,
		DepartmentRoles:      map[model.Department]string{},
		UpdatedAt:            row.UpdatedAt.UTC(),
	}
	for _, r := range roles {
		cfg.DepartmentRoles[model.Department(r.Department)] = r.RoleID
	}
	return cfg, nil
}

// UpsertStateCouncilConfig replaces the council setup including department
// roles in one transaction.
func (s *BunStore) UpsertStateCouncilConfig(ctx context.Context, c model.StateCouncilConfig) (model.StateCouncilConfig, error) {
	now := s.nowUTC()
	row := StateCouncilConfigModel{
		GuildID:              c.GuildID,
		LeaderID:             c.LeaderID,
		LeaderRoleID:         c.LeaderRoleID,
		SuspectRoleID:        c.SuspectRoleID,
		MonthlyIssuanceLimit: c.MonthlyIssuanceLimit,
		UpdatedAt:            now,
	}
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.upsert(ctx, tx, &row, []string{"guild_id"},
			"leader_id", "leader_role_id", "suspect_role_id", "monthly_issuance_limit", "updated_at"); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*DepartmentRoleModel)(nil)).Where("guild_id = ?", c.GuildID).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		for dept, role := range c.DepartmentRoles {
			if role == "" {
				continue
			}
			r := DepartmentRoleModel{GuildID: c.GuildID, Department: string(dept), RoleID: role}
			if _, err := tx.NewInsert().Model(&r).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
	if err != nil {
		return model.StateCouncilConfig{}, err
	}
	c.UpdatedAt = now
	if c.DepartmentRoles == nil {
		c.DepartmentRoles = map[model.Department]string{}
	}
	return c, nil
}

// IssueLicense grants a license. A member holds at most one active license
// per type.
func (s *BunStore) IssueLicense(ctx context.Context, l model.BusinessLicense) (model.BusinessLicense, error) {
	var out model.BusinessLicense
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*LicenseModel)(nil)).
			Where("guild_id = ?", l.GuildID).
			Where("member_id = ?", l.MemberID).
			Where("license_type = ?", l.LicenseType).
			Where("status = ?", model.LicenseActive).
			Exists(ctx)
		if err != nil {
			return MapDBError(err)
		}
		if exists {
			return fmt.Errorf("%w: member already holds an active %s license", ErrDuplicate, l.LicenseType)
		}
		row := LicenseModel{
			GuildID:     l.GuildID,
			MemberID:    l.MemberID,
			LicenseType: l.LicenseType,
			Status:      model.LicenseActive,
			IssuedBy:    l.IssuedBy,
			IssuedAt:    s.nowUTC(),
		}
		if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return MapDBError(err)
		}
		out = licenseModelToModel(row)
		return nil
	})
	return out, err
}

// RevokeLicense revokes the member's active license of the given type.
func (s *BunStore) RevokeLicense(ctx context.Context, guildID, memberID, licenseType string, at time.Time) (model.BusinessLicense, error) {
	lic, err := s.ActiveLicense(ctx, guildID, memberID, licenseType)
	if err != nil {
		return model.BusinessLicense{}, err
	}
	at = dbTime(at)
	_, err = s.bun.NewUpdate().Model((*LicenseModel)(nil)).
		Set("status = ?", model.LicenseRevoked).
		Set("revoked_at = ?", at).
		Where("id = ?", lic.ID).
		Exec(ctx)
	if err != nil {
		return model.BusinessLicense{}, MapDBError(err)
	}
	lic.Status = model.LicenseRevoked
	lic.RevokedAt = &at
	return lic, nil
}

// ListLicenses returns every license the member ever held, newest first.
func (s *BunStore) ListLicenses(ctx context.Context, guildID, memberID string) ([]model.BusinessLicense, error) {
	var rows []LicenseModel
	err := s.bun.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Where("member_id = ?", memberID).
		OrderExpr("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.BusinessLicense, 0, len(rows))
	for _, r := range rows {
		out = append(out, licenseModelToModel(r))
	}
	return out, nil
}

// ActiveLicense returns the member's active license of licenseType or
// model.ErrNotFound.
func (s *BunStore) ActiveLicense(ctx context.Context, guildID, memberID, licenseType string) (model.BusinessLicense, error) {
	var row LicenseModel
	err := s.bun.NewSelect().Model(&row).
		Where("guild_id = ?", guildID).
		Where("member_id = ?", memberID).
		Where("license_type = ?", licenseType).
		Where("status = ?", model.LicenseActive).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return model.BusinessLicense{}, MapDBError(err)
	}
	return licenseModelToModel(row), nil
}

// RecordIdentity appends an arrest or release record.
func (s *BunStore) RecordIdentity(ctx context.Context, r model.IdentityRecord) (model.IdentityRecord, error) {
	row := IdentityRecordModel{
		GuildID:     r.GuildID,
		MemberID:    r.MemberID,
		Action:      r.Action,
		Reason:      r.Reason,
		PerformedBy: r.PerformedBy,
		CreatedAt:   s.nowUTC(),
	}
	if _, err := s.bun.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return model.IdentityRecord{}, MapDBError(err)
	}
	return identityModelToModel(row), nil
}

// ListIdentity returns the member's identity records, newest first. An empty
// memberID lists the whole guild.
func (s *BunStore) ListIdentity(ctx context.Context, guildID, memberID string, limit int) ([]model.IdentityRecord, error) {
	var rows []IdentityRecordModel
	q := s.bun.NewSelect().Model(&rows).Where("guild_id = ?", guildID).OrderExpr("id DESC")
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.IdentityRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, identityModelToModel(r))
	}
	return out, nil
}

// LastIdentity returns the member's most recent identity record.
func (s *BunStore) LastIdentity(ctx context.Context, guildID, memberID string) (model.IdentityRecord, error) {
	recs, err := s.ListIdentity(ctx, guildID, memberID, 1)
	if err != nil {
		return model.IdentityRecord{}, err
	}
	if len(recs) == 0 {
		return model.IdentityRecord{}, fmt.Errorf("identity record: %w", model.ErrNotFound)
	}
	return recs[0], nil
}

// SumIssuance totals currency minted in the guild since the given time.
func (s *BunStore) SumIssuance(ctx context.Context, guildID string, since time.Time) (int64, error) {
	var sum int64
	err := s.bun.NewSelect().Model((*TransactionModel)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("guild_id = ?", guildID).
		Where("kind = ?", model.KindIssuance).
		Where("created_at >= ?", dbTime(since)).
		Scan(ctx, &sum)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, MapDBError(err)
	}
	return sum, nil
}
