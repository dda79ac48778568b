package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/report"
)

func newListCmd(a *app) *cobra.Command {
	var query, category string
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered by name and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, done, err := a.session(model.RoleUser)
			if err != nil {
				return err
			}
			defer done()

			items, err := svc.List(cmd.Context(), query, category)
			if err != nil {
				return err
			}
			if asCSV {
				return report.WriteCSV(cmd.OutOrStdout(), items, a.cfg.Schema.Columns())
			}
			return printTable(cmd.OutOrStdout(), items, a.cfg.Schema.Columns(), true)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only items whose name contains this text")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only items in this category")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV instead of a table")
	return cmd
}

func newUpsertCmd(a *app) *cobra.Command {
	var c model.Record
	var price string

	cmd := &cobra.Command{
		Use:   "upsert ITEM",
		Short: "Add an item, or overwrite the item with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, svc, done, err := a.session(model.RoleManager)
			if err != nil {
				return err
			}
			defer done()

			c.Item = args[0]
			if c.UnitPrice, err = parsePriceFlag(price); err != nil {
				return err
			}

			table, outcome, err := svc.Upsert(cmd.Context(), c, session.Actor())
			if err != nil {
				return err
			}
			saved, _ := inventory.Find(table, c.Item)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: quantity %d, reorder at %d\n", outcome, saved.Item, saved.Quantity, saved.ReorderLevel)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&c.Category, "category", "c", "", "category")
	f.IntVarP(&c.Quantity, "quantity", "n", 0, "quantity in stock")
	f.IntVarP(&c.ReorderLevel, "reorder", "r", 0, "reorder level")
	f.StringVar(&price, "price", "", "unit price")
	f.StringVarP(&c.Supplier, "supplier", "s", "", "supplier")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	var quantity, reorder int
	var price, supplier string

	cmd := &cobra.Command{
		Use:   "set ITEM",
		Short: "Change selected fields of an existing item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p inventory.Patch
			f := cmd.Flags()
			if f.Changed("quantity") {
				p.Quantity = &quantity
			}
			if f.Changed("reorder") {
				p.ReorderLevel = &reorder
			}
			if f.Changed("price") {
				d, err := parsePriceFlag(price)
				if err != nil {
					return err
				}
				p.UnitPrice = &d
			}
			if f.Changed("supplier") {
				p.Supplier = &supplier
			}
			if p == (inventory.Patch{}) {
				return fmt.Errorf("nothing to change: pass at least one of --quantity, --reorder, --price, --supplier")
			}

			session, svc, done, err := a.session(model.RoleManager)
			if err != nil {
				return err
			}
			defer done()

			r, err := svc.SetFields(cmd.Context(), args[0], p, session.Actor())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: quantity %d, reorder at %d\n", r.Item, r.Quantity, r.ReorderLevel)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&quantity, "quantity", "n", 0, "new quantity")
	f.IntVarP(&reorder, "reorder", "r", 0, "new reorder level")
	f.StringVar(&price, "price", "", "new unit price")
	f.StringVarP(&supplier, "supplier", "s", "", "new supplier")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ITEM",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, svc, done, err := a.session(model.RoleManager)
			if err != nil {
				return err
			}
			defer done()

			removed, err := svc.Delete(cmd.Context(), args[0], session.Actor())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no item named %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func parsePriceFlag(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "£")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &inventory.ValidationError{Field: "unit_price", Message: "must be a number"}
	}
	return d, nil
}

// printTable writes records as aligned columns. With levels set, each row
// ends with its stock level.
func printTable(w io.Writer, t model.Table, cols []string, levels bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := strings.Join(cols, "\t")
	if levels {
		header += "\tLevel"
	}
	fmt.Fprintln(tw, header)
	for _, r := range t {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = report.Cell(r, c)
		}
		line := strings.Join(cells, "\t")
		if levels {
			line += "\t" + inventory.LevelOf(r).String()
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
