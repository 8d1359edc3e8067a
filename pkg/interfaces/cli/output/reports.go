package output

import (
	"fmt"
	"strings"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/domain/services"
)

// Capacity renders the per-product capacity report
func Capacity(rows []dto.ProductCapacity) Document {
	table := Table{
		Title:  "Capacity",
		Header: []string{"ID", "Product", "Max Producible", "Limiting Component", "In Progress", "Shipped"},
	}
	for _, r := range rows {
		limiting := "-"
		if r.LimitingComponentID != nil {
			limiting = fmt.Sprintf("%s (#%d)", r.LimitingComponentName, *r.LimitingComponentID)
		}
		table.Rows = append(table.Rows, []any{
			int64(r.ProductID), r.ProductName, int64(r.MaxProducible), limiting, int64(r.InProgress), int64(r.Shipped),
		})
	}
	return Document{
		Title:   "Production Capacity",
		Summary: []string{fmt.Sprintf("Products: %d", len(rows))},
		Data:    rows,
		Tables:  []Table{table},
	}
}

// Procurement renders the components to order across pending orders
func Procurement(report *dto.ProcurementReport) Document {
	table := Table{
		Title:  "Components To Order",
		Header: []string{"ID", "Component", "In Stock", "Total Needed", "Shortage", "Orders Affected"},
	}
	for _, item := range report.Items {
		table.Rows = append(table.Rows, []any{
			int64(item.ComponentID), item.ComponentName, int64(item.InStock),
			int64(item.TotalNeeded), int64(item.Shortage), item.OrdersAffected,
		})
	}
	return Document{
		Title: "Procurement Needs",
		Summary: []string{
			fmt.Sprintf("Pending orders: %d", report.PendingOrders),
			fmt.Sprintf("Components short: %d", report.TotalItems),
			"Generated: " + report.GeneratedAt.Format("2006-01-02 15:04:05"),
		},
		Data:   report,
		Tables: []Table{table},
	}
}

// Requirements renders the allocation preview of one order
func Requirements(reqs *dto.OrderRequirements) Document {
	table := Table{
		Title:  "Requirements",
		Header: []string{"ID", "Component", "Needed", "Available", "Shortage", "Enough"},
	}
	for _, line := range reqs.Requirements {
		enough := "yes"
		if !line.HasEnough {
			enough = "NO"
		}
		table.Rows = append(table.Rows, []any{
			int64(line.ComponentID), line.ComponentName, int64(line.Needed),
			int64(line.Available), int64(line.Shortage), enough,
		})
	}
	return Document{
		Title: fmt.Sprintf("Order #%d: %d x %s", reqs.OrderID, reqs.Quantity, reqs.ProductName),
		Summary: []string{
			fmt.Sprintf("Can allocate: %t", reqs.CanAllocate),
		},
		Data:   reqs,
		Tables: []Table{table},
	}
}

// Validation renders the catalog check
func Validation(result *services.ValidationResult) Document {
	table := Table{Title: "Problems", Header: []string{"#", "Problem"}}
	for i, msg := range result.Errors {
		table.Rows = append(table.Rows, []any{i + 1, msg})
	}
	status := "Catalog is valid"
	if !result.Valid() {
		status = fmt.Sprintf("Catalog has %d problem(s)", len(result.Errors))
	}
	return Document{
		Title:   "Catalog Validation",
		Summary: []string{status},
		Data:    result,
		Tables:  []Table{table},
	}
}

// OrderSummary renders the order listing
func OrderSummary(summary *dto.OrderSummary) Document {
	table := Table{
		Title:  "Orders",
		Header: []string{"ID", "Product", "Quantity", "Status", "Created", "Allocations"},
	}
	for _, o := range summary.Orders {
		allocations := make([]string, 0, len(o.Allocations))
		for _, a := range o.Allocations {
			allocations = append(allocations, fmt.Sprintf("#%d=%d", a.ComponentID, a.Quantity))
		}
		table.Rows = append(table.Rows, []any{
			int64(o.ID), o.ProductName, int64(o.Quantity), o.Status.String(),
			o.CreatedAt.Format("2006-01-02 15:04:05"), strings.Join(allocations, " "),
		})
	}
	return Document{
		Title: "Production Orders",
		Summary: []string{
			fmt.Sprintf("Total: %d  Pending: %d  In progress: %d  Completed: %d",
				summary.Total, summary.Pending, summary.InProgress, summary.Completed),
		},
		Data:   summary,
		Tables: []Table{table},
	}
}
