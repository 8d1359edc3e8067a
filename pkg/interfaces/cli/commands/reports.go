package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/interfaces/cli/output"
)

// NewCapacityCommand reports how many units of each product current stock can build
func NewCapacityCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity",
		Short: "Maximum producible units per product from current stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				rows, err := s.engine.Capacity.Report(cmd.Context(), s.cfg.CapacityWorkers)
				if err != nil {
					return err
				}
				return writeDocument(cmd, opts, output.Capacity(rows))
			})
		},
	}
}

// NewProcurementCommand reports the components pending orders are short of
func NewProcurementCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "procurement",
		Short: "Components to order for all pending orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				report, err := s.engine.Procurement.Needs(cmd.Context())
				if err != nil {
					return err
				}
				return writeDocument(cmd, opts, output.Procurement(report))
			})
		},
	}
}

// NewRequirementsCommand previews what an order needs against current stock
func NewRequirementsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements <order-id>",
		Short: "Component requirements of one order against current stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(s *session) error {
				reqs, err := s.engine.OrderFlow.ComputeRequirements(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeDocument(cmd, opts, output.Requirements(reqs))
			})
		},
	}
}

// NewOrdersCommand lists the production orders with their status
func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List production orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				summary, err := s.engine.OrderFlow.List(cmd.Context())
				if err != nil {
					return err
				}
				return writeDocument(cmd, opts, output.OrderSummary(summary))
			})
		},
	}
}

// NewValidateCommand checks the loaded catalog for cycles and dangling references
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog for BOM cycles and dangling references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				result, err := s.engine.Catalog.Validate(cmd.Context())
				if err != nil {
					return err
				}
				if err := writeDocument(cmd, opts, output.Validation(result)); err != nil {
					return err
				}
				if !result.Valid() {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("catalog has %d problem(s)", len(result.Errors))}
				}
				return nil
			})
		},
	}
}

func parseOrderID(arg string) (entities.OrderID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid order id %q", arg)}
	}
	return entities.OrderID(id), nil
}
