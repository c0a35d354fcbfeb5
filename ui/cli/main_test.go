// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/econbot/econbot/internal/config"
	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/testutil"
)

// execute runs the root command against a sqlite file in a temp dir and
// returns stdout.
func execute(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--database.type", "sqlite",
		"--database.url", "file:" + dbPath,
		"--log.level", "error",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAdjustAndBalanceCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "econbot.db")

	out, err := execute(t, dbPath, "adjust", "g1", "111111111111111111", "250", "--reason", "opening")
	if err != nil {
		t.Fatalf("adjust: %v (%s)", err, out)
	}
	if !strings.Contains(out, "250") {
		t.Fatalf("adjust output missing balance: %q", out)
	}

	out, err = execute(t, dbPath, "balance", "g1", "111111111111111111")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !strings.Contains(out, "111111111111111111") || !strings.Contains(out, "250") {
		t.Fatalf("unexpected balance output: %q", out)
	}

	out, err = execute(t, dbPath, "history", "g1", "111111111111111111")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "adjustment") || !strings.Contains(out, "opening") {
		t.Fatalf("unexpected history output: %q", out)
	}
}

func TestAdjustCommand_RejectsOverdraft(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "econbot.db")
	if _, err := execute(t, dbPath, "adjust", "--", "g1", "222222222222222222", "-5"); err == nil {
		t.Fatalf("expected debit below zero to fail")
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "econbot.db")
	out, err := execute(t, dbPath, "history", "g1", "333333333333333333")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No transactions.") {
		t.Fatalf("expected empty history message, got %q", out)
	}
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	if _, err := execute(t, src, "adjust", "g1", "111111111111111111", "40"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	dst := filepath.Join(dir, "dst.db")
	out, err := execute(t, src, "migrate", "--target-type", "sqlite", "--target-url", "file:"+dst)
	if err != nil {
		t.Fatalf("migrate: %v (%s)", err, out)
	}
	if !strings.Contains(out, "up to date") {
		t.Fatalf("expected migrated message, got %q", out)
	}
	out, err = execute(t, dst, "balance", "g1", "111111111111111111")
	if err != nil || !strings.Contains(out, "40") {
		t.Fatalf("copied balance: %q, %v", out, err)
	}

	if _, err := execute(t, src, "migrate", "--target-type", "sqlite"); err == nil {
		t.Fatalf("expected error when --target-url is missing")
	}
}

func TestDBMaintainCommand(t *testing.T) {
	out, err := execute(t, filepath.Join(t.TempDir(), "econbot.db"), "db-maintain")
	if err != nil {
		t.Fatalf("db-maintain: %v (%s)", err, out)
	}
	if !strings.Contains(out, "0 overdue proposals") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testutil.NewStore(t)
	if _, err := src.AdjustBalance(ctx, "g1", "111111111111111111", 75, "tester", "seed"); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}

	file := filepath.Join(t.TempDir(), "ledger.jsonl.zst")
	n, err := writeBackup(ctx, src, file)
	if err != nil || n == 0 {
		t.Fatalf("writeBackup = %d, %v", n, err)
	}
	if _, err := writeBackup(ctx, src, file); err == nil {
		t.Fatalf("expected existing backup file not to be overwritten")
	}

	t.Run("restore", func(t *testing.T) {
		dst := testutil.NewStore(t)
		m, err := readBackup(ctx, dst, file)
		if err != nil {
			t.Fatalf("readBackup: %v", err)
		}
		if m != n {
			t.Fatalf("restored %d rows, exported %d", m, n)
		}
		snap, err := dst.GetBalance(ctx, "g1", "111111111111111111")
		if err != nil || snap.Balance != 75 {
			t.Fatalf("restored balance = %+v, %v", snap, err)
		}
	})
}

func TestReadBackup_NotZstd(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.zst")
	if err := os.WriteFile(file, []byte("not compressed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readBackup(context.Background(), testutil.NewStore(t), file); err == nil {
		t.Fatalf("expected error for a file that is not zstd")
	}
}

func TestRestoreCommand_Confirmation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := testutil.NewStore(t)
	if _, err := seed.AdjustBalance(ctx, "g1", "111111111111111111", 9, "tester", ""); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	file := filepath.Join(dir, "ledger.jsonl.zst")
	if _, err := writeBackup(ctx, seed, file); err != nil {
		t.Fatalf("writeBackup: %v", err)
	}

	orig := stdin
	defer func() { stdin = orig }()

	dbPath := filepath.Join(dir, "econbot.db")
	stdin = strings.NewReader("no\n")
	if _, err := execute(t, dbPath, "restore", file); !errors.Is(err, errAborted) {
		t.Fatalf("expected abort, got %v", err)
	}

	stdin = strings.NewReader("yes\n")
	out, err := execute(t, dbPath, "restore", file)
	if err != nil {
		t.Fatalf("restore: %v (%s)", err, out)
	}
	out, err = execute(t, dbPath, "balance", "g1", "111111111111111111")
	if err != nil || !strings.Contains(out, "9") {
		t.Fatalf("balance after restore: %q, %v", out, err)
	}
}

func TestBuildRuntime_LocalBroker(t *testing.T) {
	store := testutil.NewStore(t)
	c := config.Config{}
	c.Transfer.EventPoolEnabled = true
	c.Telemetry.ListenEnabled = true
	rt, err := buildRuntime(c, store)
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	if rt.pool == nil || rt.source == nil {
		t.Fatalf("expected pool and in-process source, got %+v", rt)
	}
	if rt.services.Transfer.Options().PoolEnabled != true {
		t.Fatalf("transfer options not applied")
	}
}

func TestOpenStore_ValidatesConfig(t *testing.T) {
	orig := appConfig
	defer func() { appConfig = orig }()
	appConfig = config.Config{Database: config.DatabaseConfig{Type: "oracle", URL: "x"}}
	called := false
	origPool := newPoolFunc
	defer func() { newPoolFunc = origPool }()
	newPoolFunc = func(c config.Config) *db.Pool {
		called = true
		return origPool(c)
	}
	if _, _, err := openStore(context.Background()); err == nil || called {
		t.Fatalf("expected validation error before opening, err=%v called=%v", err, called)
	}
}

func TestOpenStore_SharesPoolStore(t *testing.T) {
	orig := appConfig
	defer func() { appConfig = orig }()
	appConfig = config.Config{Database: config.DatabaseConfig{
		Type: "sqlite",
		URL:  "file:" + filepath.Join(t.TempDir(), "econbot.db"),
	}}

	ctx := context.Background()
	pool, store, err := openStore(ctx)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	again, err := pool.Get(ctx)
	if err != nil || again != store {
		t.Fatalf("pool.Get returned a different store: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Ping(ctx); err == nil {
		t.Fatalf("store still usable after pool.Close")
	}
}
