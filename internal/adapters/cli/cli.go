// Package cli is the operator command line. Every command acts on behalf of
// one owner, given by --owner or INVOICING_OWNER.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"invoicing/internal/app"
	"invoicing/internal/config"
	"invoicing/internal/db"
	"invoicing/internal/logger"
)

// env is shared by all subcommands. Database-backed pieces are opened on
// first use so that commands like token mint work without DATABASE_URL.
type env struct {
	cfg     *config.Config
	owner   string
	asJSON  bool
	pool    *pgxpool.Pool
	service app.ApplicationService
}

func (e *env) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if e.pool != nil {
		return e.pool, nil
	}
	if err := e.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, e.cfg.DatabaseURL, e.cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	e.pool = pool
	return pool, nil
}

func (e *env) svc(ctx context.Context) (app.ApplicationService, error) {
	if e.service != nil {
		return e.service, nil
	}
	pool, err := e.connect(ctx)
	if err != nil {
		return nil, err
	}
	svc, _, err := app.Bootstrap(pool, e.cfg)
	if err != nil {
		return nil, err
	}
	e.service = svc
	return svc, nil
}

func (e *env) ownerID() (string, error) {
	if e.owner == "" {
		return "", fmt.Errorf("owner is required: pass --owner or set INVOICING_OWNER")
	}
	return e.owner, nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// NewRootCmd builds the command tree around cfg.
func NewRootCmd(cfg *config.Config, version string) *cobra.Command {
	return newRootCmd(&env{cfg: cfg}, version)
}

func newRootCmd(e *env, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "invoicing",
		Short: "Invoice lifecycle operations",
		Long: `invoicing manages clients and invoices from the command line.

Commands that touch data require DATABASE_URL and an owner id.
The server binary exposes the same operations over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
	}

	root.PersistentFlags().StringVar(&e.owner, "owner", os.Getenv("INVOICING_OWNER"), "Owner UUID the command acts for")
	root.PersistentFlags().BoolVar(&e.asJSON, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newMigrateCmd(e),
		newClientsCmd(e),
		newInvoicesCmd(e),
		newTokenCmd(e),
		newStatsCmd(e),
	)
	return root
}

// Execute runs the root command and reports failures on stderr.
func Execute(ctx context.Context, cfg *config.Config, version string) int {
	log := logger.WithComponent("cli")

	if err := NewRootCmd(cfg, version).ExecuteContext(ctx); err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
