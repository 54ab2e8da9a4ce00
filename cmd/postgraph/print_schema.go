package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/postgraph/schema"
)

func newPrintSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "print-schema",
		Short: "Print the GraphQL schema in SDL",
		Long: `Build the GraphQL schema from the configured catalog and print it
in the schema definition language. No database connection is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.buildSchema()
			if err != nil {
				return fmt.Errorf("build schema: %w", err)
			}
			sdl, err := schema.PrintSchema(s)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), sdl)
			return err
		},
	}
}
