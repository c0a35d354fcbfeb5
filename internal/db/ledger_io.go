// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/uptrace/bun"
)

// ledgerRecord is one line of a ledger export. Exactly one payload field is
// set, selected by Table.
type ledgerRecord struct {
	Table       string               `json:"table"`
	Balance     *BalanceModel        `json:"balance,omitempty"`
	Transaction *TransactionModel    `json:"transaction,omitempty"`
	Currency    *CurrencyConfigModel `json:"currency,omitempty"`
}

const exportBatch = 500

// ExportLedger writes balances, the transaction ledger and currency settings
// as JSON lines. It returns the number of records written.
func (s *BunStore) ExportLedger(ctx context.Context, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	n := 0

	var currencies []CurrencyConfigModel
	if err := s.bun.NewSelect().Model(&currencies).OrderExpr("guild_id ASC").Scan(ctx); err != nil {
		return n, MapDBError(err)
	}
	for i := range currencies {
		if err := enc.Encode(ledgerRecord{Table: "currency_configs", Currency: &currencies[i]}); err != nil {
			return n, err
		}
		n++
	}

	var balances []BalanceModel
	if err := s.bun.NewSelect().Model(&balances).OrderExpr("guild_id ASC, member_id ASC").Scan(ctx); err != nil {
		return n, MapDBError(err)
	}
	for i := range balances {
		if err := enc.Encode(ledgerRecord{Table: "balances", Balance: &balances[i]}); err != nil {
			return n, err
		}
		n++
	}

	var lastID int64
	for {
		var txs []TransactionModel
		err := s.bun.NewSelect().Model(&txs).Where("id > ?", lastID).OrderExpr("id ASC").Limit(exportBatch).Scan(ctx)
		if err != nil {
			return n, MapDBError(err)
		}
		for i := range txs {
			if err := enc.Encode(ledgerRecord{Table: "transactions", Transaction: &txs[i]}); err != nil {
				return n, err
			}
			n++
		}
		if len(txs) < exportBatch {
			break
		}
		lastID = txs[len(txs)-1].ID
	}
	return n, nil
}

// ImportLedger replaces balances, transactions and currency settings with
// the records read from r, all within one transaction.
func (s *BunStore) ImportLedger(ctx context.Context, r io.Reader) (int, error) {
	n := 0
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, table := range []string{"transactions", "balances", "currency_configs"} {
			if _, err := ExecRaw(ctx, tx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, MapDBError(err))
			}
		}

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			if len(sc.Bytes()) == 0 {
				continue
			}
			var rec ledgerRecord
			if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			var m interface{}
			switch {
			case rec.Table == "balances" && rec.Balance != nil:
				m = rec.Balance
			case rec.Table == "transactions" && rec.Transaction != nil:
				m = rec.Transaction
			case rec.Table == "currency_configs" && rec.Currency != nil:
				m = rec.Currency
			default:
				return fmt.Errorf("line %d: unknown record %q", line, rec.Table)
			}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return fmt.Errorf("line %d: %w", line, MapDBError(err))
			}
			n++
		}
		if err := sc.Err(); err != nil {
			return err
		}
		if s.dbType == "postgres" {
			// Imported rows carry explicit ids; move the sequence past them.
			_, err := ExecRaw(ctx, tx, "SELECT setval(pg_get_serial_sequence('transactions', 'id'), COALESCE(MAX(id), 1)) FROM transactions")
			return MapDBError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
