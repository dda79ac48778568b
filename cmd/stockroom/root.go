package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/config"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// app carries global flags and the loaded configuration to subcommands.
type app struct {
	envFile   string
	logPath   string
	logFormat string
	verbose   bool
	password  string
	actor     string

	cfg      config.Config
	closeLog func()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "stockroom",
		Short:         "Track a shop's stock levels, reorders and restocks",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := setupLogger(logOptions{
				Path:    a.logPath,
				Format:  a.logFormat,
				Server:  cmd.Name() == "serve",
				Verbose: a.verbose,
			})
			if err != nil {
				return err
			}
			a.closeLog = closeLog

			if cmd.Annotations[skipConfig] != "" {
				return nil
			}
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			a.cfg = cfg
			if !cmd.Flags().Changed("password") {
				a.password = os.Getenv("STOCKROOM_CLI_PASSWORD")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.envFile, "env", "e", ".env", "env file to load before reading the environment")
	pf.StringVarP(&a.logPath, "log", "l", "", "also write logs to this file")
	pf.StringVar(&a.logFormat, "log-format", "auto", "log format: auto, text or json")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log informational messages")
	pf.StringVarP(&a.password, "password", "p", "", "password that unlocks the inventory (default $STOCKROOM_CLI_PASSWORD, read after the env file)")
	pf.StringVarP(&a.actor, "actor", "u", "", "name recorded in the restock log (default $STOCKROOM_ACTOR)")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newUpsertCmd(a),
		newSetCmd(a),
		newDeleteCmd(a),
		newLowStockCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
		newLogCmd(a),
		newHashPasswordCmd(),
	)
	return root
}

// unlock checks the supplied password and returns the unlocked session.
// minRole is the least role the command needs.
func (a *app) unlock(minRole string) (*auth.Session, error) {
	gate, err := auth.NewGate(a.cfg.Gate)
	if err != nil {
		return nil, err
	}

	actor := strings.TrimSpace(a.actor)
	if actor == "" {
		actor = a.cfg.Actor
	}

	session := auth.NewSession(gate)
	if err := session.Unlock(a.password, actor); err != nil {
		return nil, err
	}
	if !model.RoleAtLeast(session.Role(), minRole) {
		session.Lock()
		return nil, &auth.AuthError{Reason: "this command needs the " + minRole + " role"}
	}
	return session, nil
}

// openTracker opens the configured store and returns a tracker over it.
// The caller closes the store.
func (a *app) openTracker() (*tracker.Service, store.Store, error) {
	st, err := store.Open(a.cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", a.cfg.Store.Backend, err)
	}
	return tracker.New(st, a.cfg.Schema), st, nil
}

// session unlocks and opens the tracker in one step for data commands.
func (a *app) session(minRole string) (*auth.Session, *tracker.Service, func(), error) {
	session, err := a.unlock(minRole)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, st, err := a.openTracker()
	if err != nil {
		return nil, nil, nil, err
	}
	return session, svc, func() { st.Close() }, nil
}
