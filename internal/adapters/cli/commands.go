package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"invoicing/internal/app"
	"invoicing/internal/auth"
	"invoicing/internal/db"
	"invoicing/internal/logger"
	"invoicing/migrations"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			applied, err := db.Migrate(cmd.Context(), pool, migrations.FS, logger.WithComponent("migrate"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Database is up to date.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
}

func newClientsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List and create clients",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List clients by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			svc, err := e.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.ListClients(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if e.asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Clients)
			}
			printClients(cmd.OutOrStdout(), result.Clients)
			return nil
		},
	}

	var req app.ClientRequest
	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a client",
		Args:    cobra.NoArgs,
		Example: `  invoicing clients create --name "Acme Ltd" --email billing@acme.test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			svc, err := e.svc(cmd.Context())
			if err != nil {
				return err
			}
			client, err := svc.CreateClient(cmd.Context(), owner, req)
			if err != nil {
				return err
			}
			if e.asJSON {
				return writeJSON(cmd.OutOrStdout(), client)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created client %s (%s)\n", client.Name, client.ID)
			return nil
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "Client name (required)")
	create.Flags().StringVar(&req.Email, "email", "", "Billing email")
	create.Flags().StringVar(&req.Company, "company", "", "Company name")
	create.Flags().StringVar(&req.TaxID, "tax-id", "", "Tax id")
	create.Flags().StringVar(&req.Address, "address", "", "Postal address")
	create.Flags().StringVar(&req.Notes, "notes", "", "Private notes")

	cmd.AddCommand(list, create)
	return cmd
}

func newInvoicesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Inspect invoices and move them through their lifecycle",
	}

	var filter app.ListInvoicesRequest
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			svc, err := e.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.ListInvoices(cmd.Context(), owner, filter)
			if err != nil {
				return err
			}
			if e.asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Invoices)
			}
			printInvoices(cmd.OutOrStdout(), result.Invoices)
			return nil
		},
	}
	list.Flags().StringVar(&filter.Status, "status", "", "Only invoices in this status")
	list.Flags().StringVar(&filter.ClientID, "client", "", "Only invoices for this client id")
	list.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum rows (0 for all)")

	show := &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			svc, err := e.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.GetInvoice(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			if e.asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Aggregate)
			}
			printInvoice(cmd.OutOrStdout(), result.Aggregate)
			return nil
		},
	}

	var confirm bool
	status := &cobra.Command{
		Use:   "status <invoice-id> <draft|sent|paid|void>",
		Short: "Change an invoice's status",
		Args:  cobra.ExactArgs(2),
		Example: `  invoicing invoices status 6f1c... paid
  invoicing invoices status 6f1c... void --confirm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			svc, err := e.svc(cmd.Context())
			if err != nil {
				return err
			}
			inv, err := svc.ChangeInvoiceStatus(cmd.Context(), owner, args[0],
				app.StatusChangeRequest{Status: args[1], Confirm: confirm})
			if err != nil {
				return err
			}
			if e.asJSON {
				return writeJSON(cmd.OutOrStdout(), inv)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s is now %s\n", inv.InvoiceNumber, inv.Status)
			return nil
		},
	}
	status.Flags().BoolVar(&confirm, "confirm", false, "Confirm voiding the invoice")

	cmd.AddCommand(list, show, status)
	return cmd
}

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token helpers for local development",
	}

	var ttl time.Duration
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Sign a session token for --owner with AUTH_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			if err := e.cfg.RequireAuth(); err != nil {
				return err
			}
			tok, err := auth.Issue(e.cfg.JWTSecret, owner, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	mint.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	cmd.AddCommand(mint)
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show invoice counts and totals per currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := e.ownerID()
			if err != nil {
				return err
			}
			svc, err := e.svc(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := svc.GetDashboard(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if e.asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}
