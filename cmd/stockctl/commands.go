package main

import (
	"fmt"
	"os"
	"time"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/spf13/cobra"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the inventory report or one grouping",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				ctx, out := cmd.Context(), cmd.OutOrStdout()
				var (
					groups []model.GroupTotal
					err    error
				)
				switch by {
				case "":
					rows, err := s.app.Reports.InventoryReport(ctx)
					if err != nil {
						return err
					}
					export.RenderInventory(out, rows)
					return nil
				case "category":
					groups, err = s.app.Reports.GroupByCategory(ctx)
				case "supplier":
					groups, err = s.app.Reports.GroupBySupplier(ctx)
				case "warehouse":
					groups, err = s.app.Reports.GroupByWarehouse(ctx)
				default:
					return fmt.Errorf("unknown grouping %q (want category, supplier or warehouse)", by)
				}
				if err != nil {
					return err
				}
				export.RenderGroups(out, "By "+by, groups)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "group by category, supplier or warehouse")
	return cmd
}

func newLowStockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "low-stock",
		Short: "List products at or below their minimum stock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				products, err := s.app.Reports.LowStock(cmd.Context())
				if err != nil {
					return err
				}
				items := make([]model.LowStockItem, 0, len(products))
				for i := range products {
					items = append(items, products[i].ToLowStockItem())
				}
				export.RenderLowStock(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "move <sku> <IN|OUT> <quantity>",
		Short: "Record a stock movement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quantity int
			if _, err := fmt.Sscan(args[2], &quantity); err != nil {
				return fmt.Errorf("%w: %q is not a number", service.ErrInvalidQuantity, args[2])
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				ctx := cmd.Context()
				product, err := s.app.Catalog.GetProductBySKU(ctx, args[0])
				if err != nil {
					return err
				}
				entry, err := s.app.Ledger.ApplyMovement(ctx, &service.MovementRequest{
					ProductID: product.ID.String(),
					Type:      args[1],
					Quantity:  quantity,
					Notes:     notes,
				}, opts.actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transaction %d: %s %s %d, balance %d\n",
					entry.ID, product.SKU, entry.Type, entry.Quantity, entry.BalanceAfter)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "free-text note stored with the movement")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the inventory report as an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = export.Filename(time.Now())
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				rows, err := s.app.Reports.InventoryReport(cmd.Context())
				if err != nil {
					return err
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := export.WriteWorkbook(f, rows); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s\n", len(rows), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "output file (default inventory_report_<timestamp>.xlsx)")
	return cmd
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Replay the ledger and compare with stored quantities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				results, err := s.app.Ledger.VerifyAll(cmd.Context())
				if err != nil {
					return err
				}
				export.RenderReconciliation(cmd.OutOrStdout(), results)
				for _, r := range results {
					if !r.Consistent() {
						return fmt.Errorf("ledger mismatch for %s", r.SKU)
					}
				}
				return nil
			})
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories when none exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				if err := s.app.Catalog.SeedDefaults(cmd.Context()); err != nil {
					return err
				}
				categories, err := s.app.Catalog.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d categories\n", len(categories))
				return nil
			})
		},
	}
}
