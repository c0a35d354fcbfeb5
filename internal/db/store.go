// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/econbot/econbot/internal/model"
	"github.com/uptrace/bun"
)

// EconomyGateway reads and mutates balances and the ledger.
type EconomyGateway interface {
	GetBalance(ctx context.Context, guildID, memberID string) (model.BalanceSnapshot, error)
	GetHistory(ctx context.Context, guildID, memberID string, limit int, cursor string) (model.HistoryPage, error)
	AdjustBalance(ctx context.Context, guildID, memberID string, delta int64, actorID, reason string) (model.TransferResult, error)
	Transfer(ctx context.Context, req model.TransferRequest) (model.TransferResult, error)
	CheckTransfer(ctx context.Context, req model.TransferRequest) (model.TransferChecks, error)
}

// PendingTransferGateway persists transfers waiting in the event pool.
type PendingTransferGateway interface {
	CreatePendingTransfer(ctx context.Context, p model.PendingTransfer) (model.PendingTransfer, error)
	GetPendingTransfer(ctx context.Context, id string) (model.PendingTransfer, error)
	ListPendingTransfers(ctx context.Context, status string, limit int) ([]model.PendingTransfer, error)
	UpdatePendingTransfer(ctx context.Context, p model.PendingTransfer) error
}

// ConfigurationGateway stores per-guild currency settings.
type ConfigurationGateway interface {
	GetCurrencyConfig(ctx context.Context, guildID string) (model.CurrencyConfig, error)
	UpsertCurrencyConfig(ctx context.Context, c model.CurrencyConfig) (model.CurrencyConfig, error)
}

// CompanyGateway stores companies.
type CompanyGateway interface {
	CreateCompany(ctx context.Context, c model.Company) (model.Company, error)
	GetCompany(ctx context.Context, guildID string, id int64) (model.Company, error)
	ListCompaniesByOwner(ctx context.Context, guildID, ownerID string) ([]model.Company, error)
	ListCompanies(ctx context.Context, guildID string, limit, offset int) ([]model.Company, int, error)
	CountCompaniesByOwner(ctx context.Context, guildID, ownerID string) (int, error)
}

// StateCouncilGateway stores state council configuration, licenses and
// identity records and mints currency.
type StateCouncilGateway interface {
	GetStateCouncilConfig(ctx context.Context, guildID string) (model.StateCouncilConfig, error)
	UpsertStateCouncilConfig(ctx context.Context, c model.StateCouncilConfig) (model.StateCouncilConfig, error)
	IssueLicense(ctx context.Context, l model.BusinessLicense) (model.BusinessLicense, error)
	RevokeLicense(ctx context.Context, guildID, memberID, licenseType string, at time.Time) (model.BusinessLicense, error)
	ListLicenses(ctx context.Context, guildID, memberID string) ([]model.BusinessLicense, error)
	ActiveLicense(ctx context.Context, guildID, memberID, licenseType string) (model.BusinessLicense, error)
	RecordIdentity(ctx context.Context, r model.IdentityRecord) (model.IdentityRecord, error)
	ListIdentity(ctx context.Context, guildID, memberID string, limit int) ([]model.IdentityRecord, error)
	SumIssuance(ctx context.Context, guildID string, since time.Time) (int64, error)
	Mint(ctx context.Context, guildID, accountID string, amount int64, actorID, reason string) (model.TransferResult, error)
}

// GovernanceGateway stores council and assembly proposals and ballots.
type GovernanceGateway interface {
	GetGovernanceConfig(ctx context.Context, guildID, body string) (model.GovernanceConfig, error)
	UpsertGovernanceConfig(ctx context.Context, c model.GovernanceConfig) (model.GovernanceConfig, error)
	CreateProposal(ctx context.Context, p model.Proposal) (model.Proposal, error)
	GetProposal(ctx context.Context, id string) (model.Proposal, error)
	ListProposals(ctx context.Context, guildID, body, status string, limit int) ([]model.Proposal, error)
	CastVote(ctx context.Context, v model.Vote) error
	ListVotes(ctx context.Context, proposalID string) ([]model.Vote, error)
	CloseProposal(ctx context.Context, id, status string, at time.Time) (model.Proposal, error)
	RecordProposalExecution(ctx context.Context, id, status string, transactionID int64) error
	ListDueProposals(ctx context.Context, now time.Time) ([]model.Proposal, error)
}

// Store is the full gateway surface implemented by *BunStore.
type Store interface {
	EconomyGateway
	PendingTransferGateway
	ConfigurationGateway
	CompanyGateway
	StateCouncilGateway
	GovernanceGateway

	ExportLedger(ctx context.Context, w io.Writer) (int, error)
	ImportLedger(ctx context.Context, r io.Reader) (int, error)
	Maintain(ctx context.Context) error
	PGNotify(ctx context.Context, channel, payload string) error
	Ping(ctx context.Context) error
	DBType() string
	Close() error
}

var _ Store = (*BunStore)(nil)

// BunStore implements every gateway on top of a *bun.DB.
type BunStore struct {
	bun    *bun.DB
	dbType string
	now    func() time.Time
}

// NewBunStore wraps an already migrated *bun.DB.
func NewBunStore(b *bun.DB, dbType string) *BunStore {
	return &BunStore{bun: b, dbType: dbType, now: time.Now}
}

// SetClock overrides the time source used for timestamps. Tests only.
func (s *BunStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BunStore) nowUTC() time.Time {
	return dbTime(s.now())
}

// BunDB exposes the underlying *bun.DB for maintenance commands.
func (s *BunStore) BunDB() *bun.DB { return s.bun }

// DBType returns the backend name: postgres, sqlite or mysql.
func (s *BunStore) DBType() string { return s.dbType }

// Ping verifies the connection.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.bun.PingContext(ctx)
}

// Close releases the pool.
func (s *BunStore) Close() error {
	if s == nil || s.bun == nil {
		return nil
	}
	return s.bun.Close()
}

// Pool opens the store lazily on first use and shares it afterwards.
type Pool struct {
	mu     sync.Mutex
	dbType string
	dsn    string
	opts   PoolOptions
	store  *BunStore
}

// NewPool prepares a lazily opened pool.
func NewPool(dbType, dsn string, opts PoolOptions) *Pool {
	return &Pool{dbType: dbType, dsn: dsn, opts: opts}
}

// Get returns the shared store, opening and migrating it on first call.
func (p *Pool) Get(ctx context.Context) (*BunStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		return p.store, nil
	}
	s, err := NewStoreFromDSN(ctx, p.dbType, p.dsn, p.opts)
	if err != nil {
		return nil, err
	}
	p.store = s
	return s, nil
}

// DSN returns the configured connection string.
func (p *Pool) DSN() string { return p.dsn }

// DBType returns the configured backend.
func (p *Pool) DBType() string { return p.dbType }

// Close closes the store if it was opened.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}
