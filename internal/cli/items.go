/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/spf13/cobra"

	"github.com/suparena/docstore/storagemodels"
)

// ItemOptions holds flags shared by the single-record commands.
type ItemOptions struct {
	*RootOptions
	Partition string
	Data      string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Read one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dao, err := opts.openDAO(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			doc, err := dao.GetRecord(cmd.Context(), args[0], opts.Partition)
			if err != nil {
				return err
			}
			return opts.printJSON(cmd.OutOrStdout(), doc)
		},
	}

	cmd.Flags().StringVarP(&opts.Partition, "partition", "p", "", "partition key")
	_ = cmd.MarkFlagRequired("partition")
	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Insert a document",
		Long: `Insert a document. createdOn is set unless the document has one, and an id
is generated when missing.

--data takes JSON, @file, or - for stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, opts.Data)
			if err != nil {
				return err
			}
			if _, ok := doc.PartitionKey(); !ok && opts.Partition != "" {
				doc[storagemodels.FieldPartitionKey] = opts.Partition
			}
			dao, err := opts.openDAO(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			created, err := dao.Create(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return opts.printJSON(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().StringVarP(&opts.Partition, "partition", "p", "", "partition key when the document has none")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "document JSON, @file or -")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge fields into an existing document",
		Long: `Merge the fields of --data into the stored document and replace it.
--data must carry the id; updatedOn is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, opts.Data)
			if err != nil {
				return err
			}
			dao, err := opts.openDAO(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			updated, err := dao.Update(cmd.Context(), doc, opts.Partition)
			if err != nil {
				return err
			}
			return opts.printJSON(cmd.OutOrStdout(), updated)
		},
	}

	cmd.Flags().StringVarP(&opts.Partition, "partition", "p", "", "partition key (defaults to the document's _partitionKey)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "partial document JSON, @file or -")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a document",
		Long:  "Mark a document for expiry by setting ttl to 1. The store removes it later.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dao, err := opts.openDAO(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			deleted, err := dao.Delete(cmd.Context(), storagemodels.Document{
				storagemodels.FieldID:           args[0],
				storagemodels.FieldPartitionKey: opts.Partition,
			})
			if err != nil {
				return err
			}
			return opts.printJSON(cmd.OutOrStdout(), deleted)
		},
	}

	cmd.Flags().StringVarP(&opts.Partition, "partition", "p", "", "partition key")
	_ = cmd.MarkFlagRequired("partition")
	return cmd
}
