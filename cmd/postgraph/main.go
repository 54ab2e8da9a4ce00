// Command postgraph serves a GraphQL API derived from a PostgreSQL catalog.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/graphql-go/graphql"
	"github.com/spf13/cobra"

	"github.com/syssam/postgraph/config"
	"github.com/syssam/postgraph/postgres"
	"github.com/syssam/postgraph/schema"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every subcommand loads before running.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "postgraph",
		Short: "GraphQL API derived from a PostgreSQL catalog",
		Long: `postgraph reflects tables, views and functions of a PostgreSQL
database into a GraphQL schema and serves it.

  postgraph print-schema   # Print the derived schema
  postgraph serve          # Serve the schema over HTTP`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "postgraph.yaml", "config file path")
	root.AddCommand(newPrintSchemaCmd(a), newServeCmd(a))
	return root
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	// A relative catalog path is relative to the config file.
	if !filepath.IsAbs(cfg.Catalog) {
		cfg.Catalog = filepath.Join(filepath.Dir(a.cfgFile), cfg.Catalog)
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(logOut)
	return nil
}

// buildSchema reads the catalog and derives the GraphQL schema from it.
func (a *app) buildSchema() (graphql.Schema, error) {
	cat, err := postgres.LoadCatalog(a.cfg.Catalog)
	if err != nil {
		return graphql.Schema{}, err
	}
	opts := []postgres.Option{
		postgres.WithNamespaces(a.cfg.Schema.Namespaces...),
		postgres.WithLogger(a.logger),
	}
	if a.cfg.Schema.Procedures {
		opts = append(opts, postgres.WithProcedures())
	}
	inv, err := postgres.NewInventory(cat, opts...)
	if err != nil {
		return graphql.Schema{}, err
	}
	sopts := []schema.Option{
		schema.WithNodeIDFieldName(a.cfg.Schema.NodeIDFieldName),
		schema.WithLogger(a.logger),
	}
	if a.cfg.Schema.DisableMutations {
		sopts = append(sopts, schema.WithoutMutations())
	}
	return schema.Build(inv, sopts...)
}
