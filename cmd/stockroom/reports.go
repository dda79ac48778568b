package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/report"
)

func newLowStockCmd(a *app) *cobra.Command {
	var alert bool

	cmd := &cobra.Command{
		Use:   "low-stock",
		Short: "Show items at or below their reorder level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, done, err := a.session(model.RoleUser)
			if err != nil {
				return err
			}
			defer done()

			rep, err := svc.Report(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rep.LowStock) == 0 {
				fmt.Fprintln(out, "All items sufficiently stocked!")
				return nil
			}
			if alert {
				msg := report.AlertMessage(rep.LowStock)
				fmt.Fprintln(out, msg)
				fmt.Fprintln(out)
				fmt.Fprintln(out, report.WhatsAppLink(msg))
				return nil
			}
			return printTable(out, rep.LowStock, a.cfg.Schema.LowStockColumns(), false)
		},
	}
	cmd.Flags().BoolVar(&alert, "alert", false, "print the alert message and its WhatsApp link")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show item count, stock value and low-stock count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, done, err := a.session(model.RoleUser)
			if err != nil {
				return err
			}
			defer done()

			table, err := svc.Table(cmd.Context())
			if err != nil {
				return err
			}
			rep := inventory.Analyze(table)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Total items\t%d\n", rep.TotalItems)
			if a.cfg.Schema.TrackPrice {
				fmt.Fprintf(tw, "Total stock value (£)\t%s\n", report.Money(rep.TotalValue))
			}
			fmt.Fprintf(tw, "Low stock\t%d\n", len(rep.LowStock))
			fmt.Fprintf(tw, "Near threshold\t%d\n", len(rep.NearThreshold))
			if cats := inventory.Categories(table); len(cats) > 0 && a.cfg.Schema.TrackCategory {
				fmt.Fprintf(tw, "Categories\t%s\n", strings.Join(cats, ", "))
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var scope, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the inventory, or its low-stock subset, as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, done, err := a.session(model.RoleUser)
			if err != nil {
				return err
			}
			defer done()

			table, err := svc.Table(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := report.Export(w, table, a.cfg.Schema, scope); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d items to %s\n", len(table), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", report.ScopeAll, "all or low")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the restock log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, done, err := a.session(model.RoleUser)
			if err != nil {
				return err
			}
			defer done()

			log, err := svc.RestockLog(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(model.RestockColumns, "\t"))
			shown := 0
			for i := len(log) - 1; i >= 0; i-- {
				if limit > 0 && shown == limit {
					break
				}
				e := log[i]
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Timestamp.Format(model.TimeLayout), e.Item, e.Quantity, e.User)
				shown++
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many entries (0 for all)")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "hash-password [PASSWORD]",
		Short:       "Print a bcrypt hash to use as a configured password",
		Long:        "Print a bcrypt hash to use as a configured password. Without an argument the password is read from the first line of stdin.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading password: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			}

			hash, err := auth.HashSecret(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
