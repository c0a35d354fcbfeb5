// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/econbot/econbot/internal/model"
)

// GetCurrencyConfig returns the guild's currency, or the default currency
// when none has been configured.
func (s *BunStore) GetCurrencyConfig(ctx context.Context, guildID string) (model.CurrencyConfig, error) {
	var row CurrencyConfigModel
	err := s.bun.NewSelect().Model(&row).Where("guild_id = ?", guildID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultCurrencyConfig(guildID), nil
	}
	if err != nil {
		return model.CurrencyConfig{}, MapDBError(err)
	}
	return model.CurrencyConfig{GuildID: row.GuildID, Name: row.Name, Icon: row.Icon, Decimals: row.Decimals}, nil
}

// UpsertCurrencyConfig creates or replaces the guild's currency.
func (s *BunStore) UpsertCurrencyConfig(ctx context.Context, c model.CurrencyConfig) (model.CurrencyConfig, error) {
	row := CurrencyConfigModel{GuildID: c.GuildID, Name: c.Name, Icon: c.Icon, Decimals: c.Decimals, UpdatedAt: s.nowUTC()}
	if err := s.upsert(ctx, s.bun, &row, []string{"guild_id"}, "name", "icon", "decimals", "updated_at"); err != nil {
		return model.CurrencyConfig{}, err
	}
	return c, nil
}
