package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/interfaces/cli/output"
)

// NewSeedCommand loads a scenario into an empty engine and saves it to --db
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a scenario directory and persist it to the snapshot store",
		Long: `Seed reads components.csv, products.csv and the optional orders.csv from
--scenario, places every order (allocating when stock allows) and writes
the result to --db. An existing snapshot in --db is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.ScenarioDir == "" {
				return &ExitError{Code: ExitCommandError, Message: "seed requires --scenario or SCENARIO_DIR"}
			}

			s, err := openSession(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.seed(cmd.Context(), cfg.ScenarioDir)
			if err != nil {
				return err
			}
			if err := s.persist(cmd.Context()); err != nil {
				return err
			}

			doc := output.Document{
				Title: "Scenario Seeded",
				Summary: []string{
					fmt.Sprintf("Components: %d", result.Components),
					fmt.Sprintf("Products: %d", result.Products),
					fmt.Sprintf("Orders: %d (%d allocated)", result.Orders, result.Allocated),
				},
				Data: result,
			}
			return writeDocument(cmd, opts, doc)
		},
	}
}

// NewAllocateCommand reserves stock for a pending order and saves the result
func NewAllocateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "allocate <order-id>",
		Short: "Allocate stock to a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(s *session) error {
				if _, err := s.engine.OrderFlow.Allocate(cmd.Context(), id); err != nil {
					return err
				}
				if err := s.persist(cmd.Context()); err != nil {
					return err
				}
				return writeOrder(cmd, opts, s, id)
			})
		},
	}
}

// NewCompleteCommand ships an in-progress order and saves the result
func NewCompleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <order-id>",
		Short: "Complete an in-progress order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(s *session) error {
				if _, err := s.engine.OrderFlow.Complete(cmd.Context(), id); err != nil {
					return err
				}
				if err := s.persist(cmd.Context()); err != nil {
					return err
				}
				return writeOrder(cmd, opts, s, id)
			})
		},
	}
}

func writeOrder(cmd *cobra.Command, opts *RootOptions, s *session, id entities.OrderID) error {
	view, err := s.engine.OrderFlow.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	table := output.Table{Title: "Allocations", Header: []string{"Component", "Quantity"}}
	for _, a := range view.Allocations {
		table.Rows = append(table.Rows, []any{int64(a.ComponentID), int64(a.Quantity)})
	}
	return writeDocument(cmd, opts, output.Document{
		Title:   fmt.Sprintf("Order #%d", view.ID),
		Summary: []string{fmt.Sprintf("%d x %s: %s", view.Quantity, view.ProductName, view.Status)},
		Data:    view,
		Tables:  []output.Table{table},
	})
}
