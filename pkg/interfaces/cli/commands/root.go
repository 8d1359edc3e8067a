package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/interfaces/cli/output"
)

// Exit codes returned by the binary
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the catalog check or an order transition was rejected
	ExitCommandError = 2 // bad flags, unreadable files, engine errors
)

// ExitError carries the exit code a command wants
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// a rejected operation, not a broken invocation
	var domainErr *entities.Error
	if errors.As(err, &domainErr) && domainErr.Kind != entities.KindIntegrity {
		return ExitFailure
	}
	return ExitCommandError
}

// RootOptions holds the flags shared by every command
type RootOptions struct {
	Format   string
	Output   string
	Verbose  bool
	Scenario string
	DBPath   string
	EnvDir   string
}

// NewRootCommand creates the stockmrp command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stockmrp",
		Short: "Bill-of-materials explosion and production allocation",
		Long: `stockmrp keeps a catalog of components and products, explodes nested
bills of materials with spillage, and allocates stock to production orders.

State comes from a SQLite snapshot (--db / DB_PATH) or is seeded from a
scenario directory of CSV files (--scenario / SCENARIO_DIR).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !output.ValidFormat(opts.Format) {
				return &ExitError{
					Code:    ExitCommandError,
					Message: fmt.Sprintf("invalid format %q: must be one of %s", opts.Format, strings.Join(output.Formats, ", ")),
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format ("+strings.Join(output.Formats, "|")+")")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Scenario, "scenario", "", "scenario directory with components.csv, products.csv and orders.csv")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite snapshot file")
	cmd.PersistentFlags().StringVar(&opts.EnvDir, "env-dir", ".", "directory holding an optional .env file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCapacityCommand(opts))
	cmd.AddCommand(NewProcurementCommand(opts))
	cmd.AddCommand(NewRequirementsCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewAllocateCommand(opts))
	cmd.AddCommand(NewCompleteCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}
