// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/econbot/econbot/internal/model"
)

// CreateCompany inserts a company and returns it with its id. A duplicate
// name within the guild yields ErrDuplicate.
func (s *BunStore) CreateCompany(ctx context.Context, c model.Company) (model.Company, error) {
	row := CompanyModel{
		GuildID:   c.GuildID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		LicenseID: c.LicenseID,
		CreatedAt: s.nowUTC(),
	}
	if _, err := s.bun.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return model.Company{}, MapDBError(err)
	}
	return companyModelToModel(row), nil
}

// GetCompany loads a company of the guild by id.
func (s *BunStore) GetCompany(ctx context.Context, guildID string, id int64) (model.Company, error) {
	var row CompanyModel
	err := s.bun.NewSelect().Model(&row).Where("guild_id = ?", guildID).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return model.Company{}, fmt.Errorf("company %d: %w", id, MapDBError(err))
	}
	return companyModelToModel(row), nil
}

// ListCompaniesByOwner returns the owner's companies ordered by id.
func (s *BunStore) ListCompaniesByOwner(ctx context.Context, guildID, ownerID string) ([]model.Company, error) {
	var rows []CompanyModel
	err := s.bun.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Where("owner_id = ?", ownerID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.Company, 0, len(rows))
	for _, r := range rows {
		out = append(out, companyModelToModel(r))
	}
	return out, nil
}

// ListCompanies pages through a guild's companies and reports the total.
func (s *BunStore) ListCompanies(ctx context.Context, guildID string, limit, offset int) ([]model.Company, int, error) {
	var rows []CompanyModel
	total, err := s.bun.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		OrderExpr("id ASC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, MapDBError(err)
	}
	out := make([]model.Company, 0, len(rows))
	for _, r := range rows {
		out = append(out, companyModelToModel(r))
	}
	return out, total, nil
}

// CountCompaniesByOwner counts the owner's companies.
func (s *BunStore) CountCompaniesByOwner(ctx context.Context, guildID, ownerID string) (int, error) {
	n, err := s.bun.NewSelect().Model((*CompanyModel)(nil)).
		Where("guild_id = ?", guildID).
		Where("owner_id = ?", ownerID).
		Count(ctx)
	return n, MapDBError(err)
}
