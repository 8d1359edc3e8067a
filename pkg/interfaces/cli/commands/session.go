package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vsinha/stockmrp/pkg/engine"
	"github.com/vsinha/stockmrp/pkg/infrastructure/config"
	"github.com/vsinha/stockmrp/pkg/infrastructure/logging"
	"github.com/vsinha/stockmrp/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/stockmrp/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/stockmrp/pkg/interfaces/cli/output"
)

// session is one engine loaded for the duration of a command
type session struct {
	cfg    config.Config
	engine *engine.Engine
	store  *sqlite.SnapshotStore
	logger zerolog.Logger
}

// loadConfig reads env and .env, then applies the command-line overrides
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.EnvDir)
	if err != nil {
		return config.Config{}, &ExitError{Code: ExitCommandError, Message: "failed to load config", Err: err}
	}
	if opts.Scenario != "" {
		cfg.ScenarioDir = opts.Scenario
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return *cfg, nil
}

// openSession builds the engine. With restore set it loads the snapshot if there is one
// and otherwise seeds the scenario directory.
func openSession(ctx context.Context, cfg config.Config, restore bool) (*session, error) {
	logger := logging.Setup(cfg.Env, cfg.LogLevel)

	e, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to build engine", Err: err}
	}
	s := &session{cfg: cfg, engine: e, logger: logger}

	restored := false
	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			_ = e.Close()
			return nil, &ExitError{Code: ExitCommandError, Message: "failed to open snapshot store", Err: err}
		}
		s.store = store
		if restore {
			restored, err = e.Restore(ctx, store)
			if err != nil {
				_ = s.Close()
				return nil, &ExitError{Code: ExitCommandError, Message: "failed to restore state", Err: err}
			}
		}
	}

	if restore && !restored && cfg.ScenarioDir != "" {
		if _, err := s.seed(ctx, cfg.ScenarioDir); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) seed(ctx context.Context, dir string) (*engine.SeedResult, error) {
	scenario, err := csv.NewLoader().LoadScenario(dir)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to load scenario", Err: err}
	}
	result, err := s.engine.Seed(ctx, scenario)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to seed scenario", Err: err}
	}
	return result, nil
}

// persist writes the state back when a snapshot store is configured
func (s *session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.engine.Persist(ctx, s.store); err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to persist state", Err: err}
	}
	return nil
}

func (s *session) Close() error {
	err := s.engine.Close()
	if s.store != nil {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// withSession runs fn against a freshly opened session and closes it afterwards
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(*session) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// writeDocument sends doc to --output or stdout. A workbook is binary and needs a file.
func writeDocument(cmd *cobra.Command, opts *RootOptions, doc output.Document) error {
	if opts.Output == "" {
		if opts.Format == "xlsx" {
			return &ExitError{Code: ExitCommandError, Message: "xlsx output requires --output"}
		}
		return output.Write(cmd.OutOrStdout(), opts.Format, doc)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to create output file", Err: err}
	}
	if err := output.Write(f, opts.Format, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", opts.Output)
	return nil
}
