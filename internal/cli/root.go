/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/spf13/cobra"

	"github.com/suparena/docstore/datastore"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Database   string
	Container  string
	Verbose    bool
	StripMeta  bool

	// client replaces the configured backend when set.
	client datastore.Client
}

// NewRootCommand creates the root command for the docstore CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docstore",
		Short: "Query and edit documents in a partitioned document store",
		Long: `docstore talks to Cosmos DB or DynamoDB containers through the docstore
access layer: fluent queries, search by example, and CRUD with soft delete.

Connection settings come from --config (YAML), DOCSTORE_* environment
variables, and an optional --env-file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment variables from this file first")
	cmd.PersistentFlags().StringVar(&opts.Database, "database", "", "override the configured database")
	cmd.PersistentFlags().StringVar(&opts.Container, "container", "", "override the configured container")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log store calls and their cost to stderr")
	cmd.PersistentFlags().BoolVar(&opts.StripMeta, "strip-meta", false, "drop _-prefixed system fields from output")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}
