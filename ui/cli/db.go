// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/i18n"
	"github.com/econbot/econbot/internal/security"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const backupSuffix = ".zst"

// stdin is swapped by tests that answer confirmation prompts.
var stdin io.Reader = os.Stdin

func newMigrateCmd() *cobra.Command {
	var targetType, targetURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations, optionally copying the ledger to another database",
		Long: `Applies pending schema migrations to the configured database and lists
the migrations that are recorded as applied.

With --target-type and --target-url the ledger (balances, transactions and
currency settings) is copied into a second database after both schemas are
migrated. Use this to move from SQLite to Postgres.

Example:
  econbot migrate --target-type postgres --target-url postgres://econbot@db/econbot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			applied, err := db.AppliedMigrations(ctx, store.BunDB())
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.migrated"))

			if targetType == "" && targetURL == "" {
				return nil
			}
			if targetType == "" || targetURL == "" {
				return fmt.Errorf("--target-type and --target-url must be given together")
			}
			targetPool := db.NewPool(strings.ToLower(targetType), targetURL, db.PoolOptions{})
			defer func() { _ = targetPool.Close() }()
			target, err := targetPool.Get(ctx)
			if err != nil {
				return fmt.Errorf("open target database %s: %w", security.MaskURL(targetURL), err)
			}

			n, err := copyLedger(ctx, store, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.restore_done", map[string]any{"Rows": n, "File": security.MaskURL(targetURL)}))
			return nil
		},
	}
	cmd.Flags().StringVar(&targetType, "target-type", "", "Type of the database to copy the ledger into")
	cmd.Flags().StringVar(&targetURL, "target-url", "", "URL of the database to copy the ledger into")
	return cmd
}

// ledgerStore is the part of db.BunStore used by backup, restore and
// migrate.
type ledgerStore interface {
	ExportLedger(ctx context.Context, w io.Writer) (int, error)
	ImportLedger(ctx context.Context, r io.Reader) (int, error)
}

func copyLedger(ctx context.Context, from, to ledgerStore) (int, error) {
	var buf bytes.Buffer
	if _, err := from.ExportLedger(ctx, &buf); err != nil {
		return 0, fmt.Errorf("export ledger: %w", err)
	}
	n, err := to.ImportLedger(ctx, &buf)
	if err != nil {
		return 0, fmt.Errorf("import ledger: %w", err)
	}
	return n, nil
}

func newDBMaintainCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "db-maintain",
		Short: "Run database maintenance (VACUUM/OPTIMIZE) for the configured DB",
		Long: `Runs engine-specific maintenance tasks (VACUUM, OPTIMIZE TABLE, PRAGMA optimize)
and closes proposals whose voting deadline has passed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			pool, store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			start := time.Now()
			expired, err := maintain(ctx, store)
			if err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.maintained", map[string]any{
				"Elapsed": time.Since(start).Round(time.Millisecond),
				"Expired": expired,
			}))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort maintenance after this duration (0 means no timeout)")
	return cmd
}

// maintain closes overdue proposals, then runs the engine maintenance.
func maintain(ctx context.Context, store *db.BunStore) (int, error) {
	svc := core.NewServices(core.Deps{Store: store})
	expired, err := svc.Governance.ExpireDue(ctx)
	if err != nil {
		return 0, err
	}
	return expired, store.Maintain(ctx)
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Create a compressed (zstd) backup of the ledger",
		Long: `Dumps balances, transactions and currency settings into a
Zstandard-compressed JSON lines file. The default name carries today's date.

Example:
  econbot backup ./econbot-ledger.jsonl.zst`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := fmt.Sprintf("econbot-ledger-%s.jsonl%s", time.Now().Format("2006-01-02"), backupSuffix)
			if len(args) > 0 {
				name = args[0]
				if !strings.HasSuffix(name, backupSuffix) {
					name += backupSuffix
				}
			}
			pool, store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			n, err := writeBackup(cmd.Context(), store, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.backup_done", map[string]any{"Rows": n, "File": name}))
			return nil
		},
	}
}

// writeBackup exports the ledger of s into a new zstd file at name.
func writeBackup(ctx context.Context, s ledgerStore, name string) (int, error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("could not create backup file: %w", err)
	}
	defer func() { _ = f.Close() }()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return 0, fmt.Errorf("could not create zstd writer: %w", err)
	}
	n, err := s.ExportLedger(ctx, zw)
	if err != nil {
		_ = zw.Close()
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("could not finish backup: %w", err)
	}
	return n, f.Sync()
}

func newRestoreCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <backup-file.zst>",
		Short: "Replace the ledger with the contents of a backup",
		Long: `Restores balances, transactions and currency settings from a
Zstandard-compressed backup written by "econbot backup".
WARNING: existing ledger rows are replaced. This is not reversible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !yes {
				if !term.IsTerminal(int(os.Stdin.Fd())) && stdin == os.Stdin {
					return fmt.Errorf("refusing to restore without confirmation; pass --yes")
				}
				ans := promptForConfirmation(cmd.OutOrStdout(), fmt.Sprintf("Replace the ledger with %s (yes/no)? ", name))
				if ans != "yes" && ans != "y" {
					return errAborted
				}
			}
			pool, store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			n, err := readBackup(cmd.Context(), store, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.restore_done", map[string]any{"Rows": n, "File": name}))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// readBackup imports a zstd backup file into s.
func readBackup(ctx context.Context, s ledgerStore, name string) (int, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	n, err := s.ImportLedger(ctx, zr)
	if err != nil {
		return 0, fmt.Errorf("could not import backup: %w", err)
	}
	return n, nil
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(w io.Writer, prompt string) string {
	fmt.Fprint(w, prompt)
	answer, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}
