// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/econbot/econbot/buildvars"
	"github.com/econbot/econbot/internal/config"
	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/i18n"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/security"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"   // set by the linker
var gitCommit = "dev" // short commit SHA, set at build time
var buildDate = ""    // RFC3339, set at build time
var cfgFile string
var envFile string
var verbose bool

var appConfig config.Config

// newPoolFunc is a package variable so tests can swap in their own pool.
// The pool connects on first Get.
var newPoolFunc = func(c config.Config) *db.Pool {
	return db.NewPool(c.Database.Type, c.Database.URL, db.PoolOptions{
		MinSize:         c.Database.PoolMinSize,
		MaxSize:         c.Database.PoolMaxSize,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	})
}

// setupDefaultServices loads .env and the configuration, then initialises
// logging and i18n. It runs before every subcommand.
func setupDefaultServices(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	path, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}
	appConfig, err = config.Load(cmd, path)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	level := appConfig.Log.Level
	if verbose {
		level = "debug"
		db.SetDebug(true)
	}
	format := appConfig.Log.Format
	if format == "" && term.IsTerminal(int(os.Stderr.Fd())) {
		format = "text"
	}
	if err := logging.Setup(os.Stderr, level, format); err != nil {
		return err
	}
	i18n.Init(appConfig.Language)
	logging.For("cli").Debug("configuration loaded",
		"database_type", appConfig.Database.Type,
		"database_url", security.MaskURL(appConfig.Database.URL),
		"guilds", len(appConfig.Discord.GuildAllowlist))
	return nil
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// openStore validates the database part of the configuration and opens a
// migrated store through a pool. Callers release it with pool.Close.
func openStore(ctx context.Context) (*db.Pool, *db.BunStore, error) {
	if err := appConfig.Validate(false); err != nil {
		return nil, nil, err
	}
	pool := newPoolFunc(appConfig)
	store, err := pool.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return pool, store, nil
}

// Execute runs the CLI. main calls it and handles the process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates a fresh root command. Tests build their own instances.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "econbot",
		Short: "Econbot runs a Discord economy with a state council and elected bodies.",
		Long: `Econbot keeps member balances, companies and a government for a Discord
server. Members transfer currency, the state council runs welfare, taxes
and currency issuance, and the council and the supreme assembly vote on
proposals. All state lives in a database, Postgres in production.

Run "econbot run" to start the bot.`,
		PersistentPreRunE: setupDefaultServices,
		SilenceUsage:      true,
	}
	v, c, d := resolveBuildVersion(nil)
	cmd.Version = compositeVersion(v, c, d)

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging, including database timings")
	flags.StringVar(&cfgFile, "config", "", "config file (default is the user config dir or ./econbot.yaml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flags.String("database.type", "", "Database type (postgres, sqlite, mysql)")
	flags.String("database.url", "", "Database connection URL")
	flags.String("log.level", "", "Log level (debug, info, warn, error)")
	flags.String("log.format", "", "Log format (json, text, logfmt)")
	flags.String("language", "", `Reply language ("en", "zh-TW")`)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		// The version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			v, c, d := resolveBuildVersion(nil)
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", v)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", d)
			}
		},
	}

	cmd.AddCommand(
		newRunCmd(),
		newMigrateCmd(),
		newDBMaintainCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newBalanceCmd(),
		newHistoryCmd(),
		newAdjustCmd(),
		versionCmd,
	)
	return cmd
}

func compositeVersion(v, c, d string) string {
	out := v
	if c != "" && c != "dev" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If info is nil, it reads build info from the
// runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// Some build paths only record our module as a dependency.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/econbot/econbot" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

// errAborted is returned when the operator declines a confirmation.
var errAborted = errors.New("aborted")
