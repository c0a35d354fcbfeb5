// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/i18n"
	"github.com/econbot/econbot/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// operatorID is recorded as the actor of adjustments made from the CLI.
const operatorID = "cli:operator"

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	inStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	outStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// styled renders s with style only when w is a terminal.
func styled(w io.Writer, style lipgloss.Style, s string) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return style.Render(s)
	}
	return s
}

func operator(guildID string) core.Actor {
	return core.Actor{GuildID: guildID, UserID: operatorID, IsAdmin: true}
}

// withServices opens the store and runs fn with a service layer over it.
func withServices(cmd *cobra.Command, fn func(svc *core.Services) error) error {
	pool, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }()
	return fn(core.NewServices(core.Deps{Store: store}))
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <guild-id> <member-id>",
		Short: "Show a member's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(svc *core.Services) error {
				ctx := cmd.Context()
				cur, err := svc.Currency.Get(ctx, args[0])
				if err != nil {
					return err
				}
				snap, err := svc.Balance.GetBalance(ctx, operator(args[0]), args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, i18n.T("cli.balance", map[string]any{
					"Member": styled(out, headerStyle, snap.MemberID),
					"Amount": cur.Format(snap.Balance),
				}))
				return nil
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	var cursor string
	cmd := &cobra.Command{
		Use:   "history <guild-id> <member-id>",
		Short: "List a member's recent transactions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(svc *core.Services) error {
				ctx := cmd.Context()
				cur, err := svc.Currency.Get(ctx, args[0])
				if err != nil {
					return err
				}
				page, err := svc.Balance.GetHistory(ctx, operator(args[0]), args[1], limit, cursor)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(page.Entries) == 0 {
					fmt.Fprintln(out, i18n.T("cli.history_empty"))
					return nil
				}
				for _, e := range page.Entries {
					amount := cur.Format(e.Amount)
					if e.Direction == model.DirectionOut {
						amount = styled(out, outStyle, "-"+amount)
					} else {
						amount = styled(out, inStyle, "+"+amount)
					}
					fmt.Fprintf(out, "%6d  %s  %-20s %-22s %s  %s\n",
						e.TransactionID, e.CreatedAt.Format("2006-01-02 15:04"), e.Kind, e.Counterparty(), amount, e.Reason)
				}
				if page.NextCursor != "" {
					fmt.Fprintf(out, "--cursor %s\n", page.NextCursor)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Continue after this cursor")
	return cmd
}

func newAdjustCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "adjust <guild-id> <member-id> <delta>",
		Short: "Credit or debit a member (negative delta debits)",
		Long: `Changes a member's balance by delta, written in the guild's currency
units ("2.50" for a currency with two decimals). The balance never drops
below zero.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(svc *core.Services) error {
				ctx := cmd.Context()
				cur, err := svc.Currency.Get(ctx, args[0])
				if err != nil {
					return err
				}
				delta, err := model.ParseAmount(args[2], cur.Decimals)
				if err != nil {
					return err
				}
				snap, err := svc.Balance.Adjust(ctx, operator(args[0]), args[1], delta, reason)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.adjusted", map[string]any{
					"Member": snap.MemberID,
					"Amount": cur.Format(snap.Balance),
				}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason stored with the adjustment")
	return cmd
}
