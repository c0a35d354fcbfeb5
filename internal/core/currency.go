// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/model"
)

const (
	maxCurrencyName = 20
	maxCurrencyIcon = 32
)

// CurrencyUpdate holds the fields to change. Nil fields keep their value.
type CurrencyUpdate struct {
	Name     *string
	Icon     *string
	Decimals *int
}

// CurrencyConfigService manages the per-guild currency presentation.
type CurrencyConfigService struct {
	config db.ConfigurationGateway
}

// NewCurrencyConfigService returns a service over the configuration gateway.
func NewCurrencyConfigService(config db.ConfigurationGateway) *CurrencyConfigService {
	return &CurrencyConfigService{config: config}
}

// Get returns the guild's currency, or the default one.
func (s *CurrencyConfigService) Get(ctx context.Context, guildID string) (model.CurrencyConfig, error) {
	return s.config.GetCurrencyConfig(ctx, guildID)
}

// Update changes the guild's currency. Admin only.
func (s *CurrencyConfigService) Update(ctx context.Context, actor Actor, u CurrencyUpdate) (model.CurrencyConfig, error) {
	if !actor.IsAdmin {
		return model.CurrencyConfig{}, denied("configure the currency", "administrator")
	}
	cur, err := s.config.GetCurrencyConfig(ctx, actor.GuildID)
	if err != nil {
		return model.CurrencyConfig{}, err
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if n := utf8.RuneCountInString(name); n < 1 || n > maxCurrencyName {
			return model.CurrencyConfig{}, invalid("name", "must be 1 to %d characters", maxCurrencyName)
		}
		cur.Name = name
	}
	if u.Icon != nil {
		icon := strings.TrimSpace(*u.Icon)
		if icon == "" || utf8.RuneCountInString(icon) > maxCurrencyIcon {
			return model.CurrencyConfig{}, invalid("icon", "must be 1 to %d characters", maxCurrencyIcon)
		}
		cur.Icon = icon
	}
	if u.Decimals != nil {
		if *u.Decimals < 0 || *u.Decimals > model.MaxDecimals {
			return model.CurrencyConfig{}, invalid("decimals", "must be between 0 and %d", model.MaxDecimals)
		}
		cur.Decimals = *u.Decimals
	}
	cur.GuildID = actor.GuildID
	return s.config.UpsertCurrencyConfig(ctx, cur)
}
