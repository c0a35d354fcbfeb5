// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/events"
)

// Store is every gateway the services use.
type Store interface {
	db.Store
	AccountBalances(ctx context.Context, guildID string, accountIDs ...string) (map[string]int64, error)
}

// Deps configures NewServices.
type Deps struct {
	Store         Store
	Emitter       Emitter
	Transfer      TransferOptions
	CouncilBus    events.Publisher[events.StateCouncilEvent]
	GovernanceBus events.Publisher[events.GovernanceEvent]
	Clock         Clock
}

// Services bundles the service layer.
type Services struct {
	Balance      *BalanceService
	Transfer     *TransferService
	Currency     *CurrencyConfigService
	Company      *CompanyService
	StateCouncil *StateCouncilService
	Governance   *GovernanceService
	Panel        *PersonalPanel
}

// NewServices builds every service over one store.
func NewServices(d Deps) *Services {
	st := d.Store
	return &Services{
		Balance:      NewBalanceService(st),
		Transfer:     NewTransferService(st, st, d.Emitter, d.Transfer, d.Clock),
		Currency:     NewCurrencyConfigService(st),
		Company:      NewCompanyService(st, st, st, d.Emitter),
		StateCouncil: NewStateCouncilService(st, d.CouncilBus, d.Clock),
		Governance:   NewGovernanceService(st, st, d.GovernanceBus, d.Clock),
		Panel:        NewPersonalPanel(st, st, st, st),
	}
}
