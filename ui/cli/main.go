// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/toeirei/chatlocked/buildvars"
	"github.com/toeirei/chatlocked/internal/config"
	"github.com/toeirei/chatlocked/internal/core"
	"github.com/toeirei/chatlocked/internal/i18n"
	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/stronghold"
	"github.com/toeirei/chatlocked/internal/tui"
	"github.com/toeirei/chatlocked/internal/vault/factory"
)

var version = buildvars.VersionOrDefault("dev")
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

// newPlugin builds the configured vault plugin. Tests may replace it.
var newPlugin = factory.New

// runTUI starts the interactive UI. Tests may replace it.
var runTUI = tui.Run

// app carries the state shared by all commands of one invocation.
type app struct {
	cfg         config.Config
	cfgFile     string
	password    string
	showVersion bool

	reader *bufio.Reader
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	configPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), configPath)
	if err != nil && !isConfigNotFound(err) {
		return fmt.Errorf("error loading config: %w", err)
	}
	a.cfg = cfg

	if err := logging.SetLevel(a.cfg.Log.Level); err != nil {
		logging.Warnf("invalid log.level %q, keeping %s", a.cfg.Log.Level, logging.L.GetLevel())
	}
	i18n.Init(a.cfg.Language)
	return nil
}

// logToFile redirects logging into chatlocked.log in the data directory and
// returns a func restoring stderr output.
func (a *app) logToFile() (func(), error) {
	dir, err := a.cfg.DataDirFunc()()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, config.AppName+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	logging.SetOutput(f)
	return func() {
		logging.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

// service builds the vault facade and account service from the loaded config.
func (a *app) service() (*core.Service, error) {
	plugin, err := newPlugin(a.cfg.Vault)
	if err != nil {
		return nil, err
	}
	store := stronghold.New(plugin, a.cfg.DataDirFunc())
	return core.NewService(store, a.cfg.Keygen.PBKDF2Iterations), nil
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
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

// Execute runs the CLI entrypoint. The main package calls this function and
// handles process exit.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func applyDefaultFlags(cmd *cobra.Command) {
	d := config.Defaults()
	flags := cmd.PersistentFlags()
	flags.String("vault.backend", d["vault.backend"].(string), "Vault backend (hold, sqlite, postgres, mysql, memory)")
	flags.String("vault.dir", "", "Directory holding the vault (default: app data directory)")
	flags.String("vault.dsn", "", "Database connection string for SQL backends")
	flags.String("vault.kdf", d["vault.kdf"].(string), "Key derivation for new vaults (argon2id, scrypt, pbkdf2)")
	flags.String("vault.cipher", d["vault.cipher"].(string), "Cipher for new vaults (xchacha20poly1305, aesgcm)")
	flags.Int("keygen.pbkdf2_iterations", d["keygen.pbkdf2_iterations"].(int), "PBKDF2 iterations for the session encryption key")
	flags.String("language", d["language"].(string), `UI language ("en", "de")`)
	flags.String("log.level", d["log.level"].(string), "Log level (debug, info, warn, error)")
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "chatlocked",
		Short: "ChatLocked keeps your account secrets in an encrypted local vault.",
		Long: `ChatLocked stores your account email, secret key and session encryption
key in an encrypted vault on this machine. The vault is unlocked with your
password; the session key expires after an hour and is removed on lock.

Running without a subcommand will launch the interactive TUI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), compositeVersion())
				os.Exit(0)
			}
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			// The TUI owns the terminal; send log output to a file meanwhile.
			if restore, err := a.logToFile(); err != nil {
				logging.Warnf("could not open log file: %v", err)
			} else {
				defer restore()
			}
			return runTUI(cmd.Context(), svc)
		},
	}
	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&a.showVersion, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	cmd.PersistentFlags().StringVarP(&a.password, "password", "p", "", "Vault password (default: $CHATLOCKED_PASSWORD or prompt)")
	applyDefaultFlags(cmd)

	cmd.AddCommand(
		newSetupCmd(a),
		newUnlockCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newDeleteCmd(a),
		newLockCmd(a),
		newEncryptCmd(a),
		newDecryptCmd(a),
		newKeygenCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
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
		// Some build paths only record our module among the dependencies.
		if resolvedVersion == "dev" || resolvedVersion == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/toeirei/chatlocked" && dep.Version != "" {
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
			case "vcs.modified":
				if modified, _ := strconv.ParseBool(s.Value); modified && resolvedCommit != "dev" {
					resolvedCommit += "-dirty"
				}
			}
		}
	}

	// As a last resort show the commit injected via ldflags.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
