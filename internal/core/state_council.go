// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/model"
)

// CouncilStore is the storage the state council needs.
type CouncilStore interface {
	db.StateCouncilGateway
	db.EconomyGateway
	AccountBalances(ctx context.Context, guildID string, accountIDs ...string) (map[string]int64, error)
}

// StateCouncilService runs the state council: departments with their own
// accounts, welfare, taxes, currency issuance, business licenses and
// arrests.
type StateCouncilService struct {
	store CouncilStore
	bus   events.Publisher[events.StateCouncilEvent]
	clock Clock
	log   *logging.Logger
}

// NewStateCouncilService wires the service. bus may be nil.
func NewStateCouncilService(store CouncilStore, bus events.Publisher[events.StateCouncilEvent], clock Clock) *StateCouncilService {
	return &StateCouncilService{store: store, bus: bus, clock: clockOrSystem(clock), log: logging.For("state_council")}
}

func (s *StateCouncilService) publish(ctx context.Context, ev events.StateCouncilEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.clock.Now()
	}
	s.log.Info("state council event", "kind", ev.Kind, "guild_id", ev.GuildID, "actor_id", ev.ActorID)
	if s.bus != nil {
		s.bus.Publish(ctx, ev.GuildID, ev)
	}
}

// Config returns the guild's council configuration.
func (s *StateCouncilService) Config(ctx context.Context, guildID string) (model.StateCouncilConfig, error) {
	cfg, err := s.store.GetStateCouncilConfig(ctx, guildID)
	if errors.Is(err, ErrNotFound) {
		return model.StateCouncilConfig{}, fmt.Errorf("state council is not configured: %w", ErrNotFound)
	}
	return cfg, err
}

func (s *StateCouncilService) configOrEmpty(ctx context.Context, guildID string) (model.StateCouncilConfig, error) {
	cfg, err := s.store.GetStateCouncilConfig(ctx, guildID)
	if errors.Is(err, ErrNotFound) {
		return model.StateCouncilConfig{GuildID: guildID, DepartmentRoles: map[model.Department]string{}}, nil
	}
	return cfg, err
}

// IsLeader reports whether the actor leads the council.
func IsLeader(cfg model.StateCouncilConfig, actor Actor) bool {
	if cfg.LeaderID != "" && cfg.LeaderID == actor.UserID {
		return true
	}
	return actor.HasRole(cfg.LeaderRoleID)
}

// InDepartment reports whether the actor may act for dept. The leader may
// act for every department.
func InDepartment(cfg model.StateCouncilConfig, actor Actor, dept model.Department) bool {
	return IsLeader(cfg, actor) || actor.HasRole(cfg.DepartmentRoles[dept])
}

func (s *StateCouncilService) department(ctx context.Context, actor Actor, dept model.Department) (model.StateCouncilConfig, error) {
	cfg, err := s.Config(ctx, actor.GuildID)
	if err != nil {
		return cfg, err
	}
	if !InDepartment(cfg, actor, dept) {
		return cfg, denied("act for the "+string(dept)+" department", string(dept)+" department role")
	}
	return cfg, nil
}

// leaderOrAdmin loads the config (or an empty one) and checks that the
// actor may change it.
func (s *StateCouncilService) leaderOrAdmin(ctx context.Context, actor Actor, action string) (model.StateCouncilConfig, error) {
	cfg, err := s.configOrEmpty(ctx, actor.GuildID)
	if err != nil {
		return cfg, err
	}
	if !actor.IsAdmin && !IsLeader(cfg, actor) {
		return cfg, denied(action, "council leader")
	}
	return cfg, nil
}

func (s *StateCouncilService) save(ctx context.Context, actor Actor, cfg model.StateCouncilConfig) (model.StateCouncilConfig, error) {
	cfg.GuildID = actor.GuildID
	out, err := s.store.UpsertStateCouncilConfig(ctx, cfg)
	if err != nil {
		return model.StateCouncilConfig{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{Kind: events.CouncilConfigUpdated, GuildID: actor.GuildID, ActorID: actor.UserID})
	return out, nil
}

// Configure sets the council leader. Admin only. Either a leader member or
// a leader role is required.
func (s *StateCouncilService) Configure(ctx context.Context, actor Actor, leaderID, leaderRoleID string) (model.StateCouncilConfig, error) {
	if !actor.IsAdmin {
		return model.StateCouncilConfig{}, denied("configure the state council", "administrator")
	}
	leaderID, leaderRoleID = strings.TrimSpace(leaderID), strings.TrimSpace(leaderRoleID)
	if leaderID == "" && leaderRoleID == "" {
		return model.StateCouncilConfig{}, invalid("leader", "a leader or leader role is required")
	}
	cfg, err := s.configOrEmpty(ctx, actor.GuildID)
	if err != nil {
		return model.StateCouncilConfig{}, err
	}
	cfg.LeaderID = leaderID
	cfg.LeaderRoleID = leaderRoleID
	return s.save(ctx, actor, cfg)
}

// SetDepartmentRole binds dept to a guild role. An empty role unbinds it.
func (s *StateCouncilService) SetDepartmentRole(ctx context.Context, actor Actor, dept model.Department, roleID string) (model.StateCouncilConfig, error) {
	if _, ok := model.ParseDepartment(string(dept)); !ok {
		return model.StateCouncilConfig{}, invalid("department", "unknown department %q", dept)
	}
	cfg, err := s.leaderOrAdmin(ctx, actor, "assign department roles")
	if err != nil {
		return model.StateCouncilConfig{}, err
	}
	if cfg.DepartmentRoles == nil {
		cfg.DepartmentRoles = map[model.Department]string{}
	}
	if roleID = strings.TrimSpace(roleID); roleID == "" {
		delete(cfg.DepartmentRoles, dept)
	} else {
		cfg.DepartmentRoles[dept] = roleID
	}
	return s.save(ctx, actor, cfg)
}

// SetSuspectRole sets the role applied to arrested members.
func (s *StateCouncilService) SetSuspectRole(ctx context.Context, actor Actor, roleID string) (model.StateCouncilConfig, error) {
	cfg, err := s.leaderOrAdmin(ctx, actor, "set the suspect role")
	if err != nil {
		return model.StateCouncilConfig{}, err
	}
	cfg.SuspectRoleID = strings.TrimSpace(roleID)
	return s.save(ctx, actor, cfg)
}

// SetIssuanceLimit sets the monthly issuance cap. 0 means unlimited.
func (s *StateCouncilService) SetIssuanceLimit(ctx context.Context, actor Actor, limit int64) (model.StateCouncilConfig, error) {
	if limit < 0 {
		return model.StateCouncilConfig{}, invalid("limit", "must not be negative")
	}
	cfg, err := s.leaderOrAdmin(ctx, actor, "set the issuance limit")
	if err != nil {
		return model.StateCouncilConfig{}, err
	}
	cfg.MonthlyIssuanceLimit = limit
	return s.save(ctx, actor, cfg)
}

// Summary returns department balances and this month's issuance. Visible
// to admins, the leader and department members.
func (s *StateCouncilService) Summary(ctx context.Context, actor Actor) (model.StateCouncilSummary, error) {
	cfg, err := s.Config(ctx, actor.GuildID)
	if err != nil {
		return model.StateCouncilSummary{}, err
	}
	allowed := actor.IsAdmin || IsLeader(cfg, actor)
	for _, d := range model.Departments {
		allowed = allowed || actor.HasRole(cfg.DepartmentRoles[d])
	}
	if !allowed {
		return model.StateCouncilSummary{}, denied("view the state council", "council membership")
	}
	ids := make([]string, 0, len(model.Departments))
	for _, d := range model.Departments {
		ids = append(ids, d.AccountID())
	}
	balances, err := s.store.AccountBalances(ctx, actor.GuildID, ids...)
	if err != nil {
		return model.StateCouncilSummary{}, err
	}
	issued, err := s.store.SumIssuance(ctx, actor.GuildID, db.MonthStart(s.clock.Now()))
	if err != nil {
		return model.StateCouncilSummary{}, err
	}
	out := model.StateCouncilSummary{Config: cfg, IssuedThisMonth: issued}
	for _, d := range model.Departments {
		out.Balances = append(out.Balances, model.DepartmentBalance{Department: d, Balance: balances[d.AccountID()]})
	}
	return out, nil
}

func checkAmountTarget(targetID string, amount int64, reason string) error {
	if strings.TrimSpace(targetID) == "" {
		return invalid("target", "is required")
	}
	if amount <= 0 {
		return invalid("amount", "must be positive")
	}
	return checkReason(reason)
}

// DisburseWelfare pays a member from the interior department account.
func (s *StateCouncilService) DisburseWelfare(ctx context.Context, actor Actor, targetID string, amount int64, reason string) (model.TransferResult, error) {
	if err := checkAmountTarget(targetID, amount, reason); err != nil {
		return model.TransferResult{}, err
	}
	if _, err := s.department(ctx, actor, model.DepartmentInterior); err != nil {
		return model.TransferResult{}, err
	}
	res, err := s.store.Transfer(ctx, model.TransferRequest{
		GuildID: actor.GuildID, InitiatorID: model.DepartmentInterior.AccountID(), TargetID: targetID,
		Amount: amount, Kind: model.KindWelfare, Reason: reason, ActorID: actor.UserID,
	})
	if err != nil {
		return model.TransferResult{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: events.CouncilWelfareDisbursed, GuildID: actor.GuildID, ActorID: actor.UserID,
		Department: model.DepartmentInterior, TargetID: targetID, Amount: amount, Reason: reason,
		TransactionID: res.TransactionID, OccurredAt: res.CreatedAt,
	})
	return res, nil
}

// CollectTax moves amount from a member into the finance department account.
func (s *StateCouncilService) CollectTax(ctx context.Context, actor Actor, targetID string, amount int64, reason string) (model.TransferResult, error) {
	if err := checkAmountTarget(targetID, amount, reason); err != nil {
		return model.TransferResult{}, err
	}
	if _, err := s.department(ctx, actor, model.DepartmentFinance); err != nil {
		return model.TransferResult{}, err
	}
	res, err := s.store.Transfer(ctx, model.TransferRequest{
		GuildID: actor.GuildID, InitiatorID: targetID, TargetID: model.DepartmentFinance.AccountID(),
		Amount: amount, Kind: model.KindTax, Reason: reason, ActorID: actor.UserID,
	})
	if err != nil {
		return model.TransferResult{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: events.CouncilTaxCollected, GuildID: actor.GuildID, ActorID: actor.UserID,
		Department: model.DepartmentFinance, TargetID: targetID, Amount: amount, Reason: reason,
		TransactionID: res.TransactionID, OccurredAt: res.CreatedAt,
	})
	return res, nil
}

// IssueCurrency mints amount into a department account. The monthly
// issuance limit applies across all departments.
func (s *StateCouncilService) IssueCurrency(ctx context.Context, actor Actor, dept model.Department, amount int64, reason string) (model.TransferResult, error) {
	if _, ok := model.ParseDepartment(string(dept)); !ok {
		return model.TransferResult{}, invalid("department", "unknown department %q", dept)
	}
	if amount <= 0 {
		return model.TransferResult{}, invalid("amount", "must be positive")
	}
	if err := checkReason(reason); err != nil {
		return model.TransferResult{}, err
	}
	cfg, err := s.department(ctx, actor, model.DepartmentCentralBank)
	if err != nil {
		return model.TransferResult{}, err
	}
	if cfg.MonthlyIssuanceLimit > 0 {
		used, err := s.store.SumIssuance(ctx, actor.GuildID, db.MonthStart(s.clock.Now()))
		if err != nil {
			return model.TransferResult{}, err
		}
		if used+amount > cfg.MonthlyIssuanceLimit {
			return model.TransferResult{}, &model.LimitError{
				Limit: cfg.MonthlyIssuanceLimit, Used: used, Requested: amount, Err: ErrIssuanceLimit,
			}
		}
	}
	res, err := s.store.Mint(ctx, actor.GuildID, dept.AccountID(), amount, actor.UserID, reason)
	if err != nil {
		return model.TransferResult{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: events.CouncilCurrencyIssued, GuildID: actor.GuildID, ActorID: actor.UserID,
		Department: dept, Amount: amount, Reason: reason,
		TransactionID: res.TransactionID, OccurredAt: res.CreatedAt,
	})
	return res, nil
}

// TransferBetweenDepartments moves funds between department accounts. The
// leader or a member of the source department may do this.
func (s *StateCouncilService) TransferBetweenDepartments(ctx context.Context, actor Actor, from, to model.Department, amount int64, reason string) (model.TransferResult, error) {
	for _, d := range []model.Department{from, to} {
		if _, ok := model.ParseDepartment(string(d)); !ok {
			return model.TransferResult{}, invalid("department", "unknown department %q", d)
		}
	}
	if from == to {
		return model.TransferResult{}, invalid("department", "source and destination must differ")
	}
	if amount <= 0 {
		return model.TransferResult{}, invalid("amount", "must be positive")
	}
	if err := checkReason(reason); err != nil {
		return model.TransferResult{}, err
	}
	if _, err := s.department(ctx, actor, from); err != nil {
		return model.TransferResult{}, err
	}
	res, err := s.store.Transfer(ctx, model.TransferRequest{
		GuildID: actor.GuildID, InitiatorID: from.AccountID(), TargetID: to.AccountID(),
		Amount: amount, Kind: model.KindDepartment, Reason: reason, ActorID: actor.UserID,
	})
	if err != nil {
		return model.TransferResult{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: events.CouncilDepartmentTransfer, GuildID: actor.GuildID, ActorID: actor.UserID,
		Department: from, ToDepartment: to, Amount: amount, Reason: reason,
		TransactionID: res.TransactionID, OccurredAt: res.CreatedAt,
	})
	return res, nil
}

func licenseType(t string) string {
	if t = strings.TrimSpace(t); t == "" {
		return model.LicenseTypeCompany
	}
	return t
}

// IssueLicense grants memberID a business license. Interior department.
func (s *StateCouncilService) IssueLicense(ctx context.Context, actor Actor, memberID, licenseTyp string) (model.BusinessLicense, error) {
	if strings.TrimSpace(memberID) == "" {
		return model.BusinessLicense{}, invalid("member", "is required")
	}
	if _, err := s.department(ctx, actor, model.DepartmentInterior); err != nil {
		return model.BusinessLicense{}, err
	}
	lic, err := s.store.IssueLicense(ctx, model.BusinessLicense{
		GuildID: actor.GuildID, MemberID: memberID, LicenseType: licenseType(licenseTyp), IssuedBy: actor.UserID,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return model.BusinessLicense{}, invalid("license", "member already holds an active %s license", licenseType(licenseTyp))
	}
	if err != nil {
		return model.BusinessLicense{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: events.CouncilLicenseIssued, GuildID: actor.GuildID, ActorID: actor.UserID,
		Department: model.DepartmentInterior, TargetID: memberID, Reason: lic.LicenseType, OccurredAt: lic.IssuedAt,
	})
	return lic, nil
}

// RevokeLicense revokes memberID's active license. Interior department.
func (s *StateCouncilService) RevokeLicense(ctx context.Context, actor Actor, memberID, licenseTyp string) (model.BusinessLicense, error) {
	if strings.TrimSpace(memberID) == "" {
		return model.BusinessLicense{}, invalid("member", "is required")
	}
	if _, err := s.department(ctx, actor, model.DepartmentInterior); err != nil {
		return model.BusinessLicense{}, err
	}
	lic, err := s.store.RevokeLicense(ctx, actor.GuildID, memberID, licenseType(licenseTyp), s.clock.Now())
	if err != nil {
		return model.BusinessLicense{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: events.CouncilLicenseRevoked, GuildID: actor.GuildID, ActorID: actor.UserID,
		Department: model.DepartmentInterior, TargetID: memberID, Reason: lic.LicenseType,
	})
	return lic, nil
}

// Licenses lists a member's licenses. Members may see their own; the
// interior department may see everyone's.
func (s *StateCouncilService) Licenses(ctx context.Context, actor Actor, memberID string) ([]model.BusinessLicense, error) {
	memberID = resolveTarget(actor, memberID)
	if memberID != actor.UserID && !actor.IsAdmin {
		if _, err := s.department(ctx, actor, model.DepartmentInterior); err != nil {
			return nil, err
		}
	}
	return s.store.ListLicenses(ctx, actor.GuildID, memberID)
}

func (s *StateCouncilService) arrested(ctx context.Context, guildID, memberID string) (bool, error) {
	recs, err := s.store.ListIdentity(ctx, guildID, memberID, 1)
	if err != nil {
		return false, err
	}
	return len(recs) > 0 && recs[0].Action == model.IdentityArrest, nil
}

func (s *StateCouncilService) identity(ctx context.Context, actor Actor, memberID, action, reason string) (model.IdentityRecord, error) {
	if strings.TrimSpace(memberID) == "" {
		return model.IdentityRecord{}, invalid("member", "is required")
	}
	if err := checkReason(reason); err != nil {
		return model.IdentityRecord{}, err
	}
	cfg, err := s.department(ctx, actor, model.DepartmentSecurity)
	if err != nil {
		return model.IdentityRecord{}, err
	}
	held, err := s.arrested(ctx, actor.GuildID, memberID)
	if err != nil {
		return model.IdentityRecord{}, err
	}
	kind := events.CouncilMemberArrested
	switch {
	case action == model.IdentityArrest && held:
		return model.IdentityRecord{}, invalid("member", "is already arrested")
	case action == model.IdentityRelease && !held:
		return model.IdentityRecord{}, invalid("member", "is not arrested")
	case action == model.IdentityRelease:
		kind = events.CouncilMemberReleased
	}
	rec, err := s.store.RecordIdentity(ctx, model.IdentityRecord{
		GuildID: actor.GuildID, MemberID: memberID, Action: action, Reason: reason, PerformedBy: actor.UserID,
	})
	if err != nil {
		return model.IdentityRecord{}, err
	}
	s.publish(ctx, events.StateCouncilEvent{
		Kind: kind, GuildID: actor.GuildID, ActorID: actor.UserID, Department: model.DepartmentSecurity,
		TargetID: memberID, Reason: reason, SuspectRoleID: cfg.SuspectRoleID, OccurredAt: rec.CreatedAt,
	})
	return rec, nil
}

// Arrest records an arrest of memberID. Security department.
func (s *StateCouncilService) Arrest(ctx context.Context, actor Actor, memberID, reason string) (model.IdentityRecord, error) {
	return s.identity(ctx, actor, memberID, model.IdentityArrest, reason)
}

// Release records the release of an arrested member. Security department.
func (s *StateCouncilService) Release(ctx context.Context, actor Actor, memberID, reason string) (model.IdentityRecord, error) {
	return s.identity(ctx, actor, memberID, model.IdentityRelease, reason)
}
