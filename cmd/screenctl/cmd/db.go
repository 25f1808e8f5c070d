package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/checkbench/internal/admin"
	"github.com/JonMunkholm/checkbench/internal/reference"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

type dbOptions struct {
	url string
}

func newDBCmd() *cobra.Command {
	opts := &dbOptions{}

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the reference_customers table",
		Long: `db migrates, seeds and resets the PostgreSQL reference table the
server reads when DATABASE_URL is set.

Example:
  screenctl db migrate
  screenctl db seed --reference ref.yaml --reset`,
	}
	cmd.PersistentFlags().StringVar(&opts.url, "database-url", "", "PostgreSQL URL (default: $DATABASE_URL)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the reference table and indexes",
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withDB(cmd.Context(), func(ctx context.Context, r *admin.ReferenceDB) error {
					return r.Migrate(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Truncate the reference table",
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withDB(cmd.Context(), func(ctx context.Context, r *admin.ReferenceDB) error {
					return r.Reset(ctx)
				})
			},
		},
		newSeedCmd(opts),
	)
	return cmd
}

func newSeedCmd(opts *dbOptions) *cobra.Command {
	var (
		file  string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a reference YAML file into the reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := reference.LoadYAMLFile(file)
			if err != nil {
				return err
			}
			return opts.withDB(cmd.Context(), func(ctx context.Context, r *admin.ReferenceDB) error {
				if err := r.Migrate(ctx); err != nil {
					return err
				}
				if reset {
					if err := r.Reset(ctx); err != nil {
						return err
					}
				}
				n, err := r.Seed(ctx, store.Records())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d reference records\n", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "reference", "r", "", "reference population YAML file")
	cmd.Flags().BoolVar(&reset, "reset", false, "truncate the table before loading")
	cmd.MarkFlagRequired("reference")
	return cmd
}

func (o *dbOptions) withDB(ctx context.Context, fn func(context.Context, *admin.ReferenceDB) error) error {
	url := o.url
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return errors.New("no database URL: set --database-url or DATABASE_URL")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return fn(ctx, &admin.ReferenceDB{DB: pool})
}
