/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/query"
	"github.com/suparena/docstore/storagemodels"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Type   string
	Item   string
	Offset int
	Limit  int
	Sort   string
	Order  string
	DryRun bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find documents of a type matching an example object",
		Long: `Find documents whose fields equal every field of --item.

Example:
  docstore search --type User --item '{"firstName":"Adam","address":{"city":"Oslo"}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "type discriminator (also the partition)")
	cmd.Flags().StringVar(&opts.Item, "item", "{}", "example object as JSON")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "rows to return (default 10)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "field to order by (default _ts)")
	cmd.Flags().StringVar(&opts.Order, "order", "desc", "sort direction (asc|desc)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the query literal without running it")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func searchOptions(opts *SearchOptions) (query.SearchOptions, error) {
	var item map[string]any
	if err := json.Unmarshal([]byte(opts.Item), &item); err != nil {
		return query.SearchOptions{}, errors.NewValidationError("item", "must be a JSON object")
	}

	so := query.SearchOptions{Type: opts.Type, Item: item}
	if opts.Offset != 0 || opts.Limit != 0 {
		limit := opts.Limit
		if limit == 0 {
			limit = storagemodels.DefaultPage.Limit
		}
		so.Page = &storagemodels.Page{Offset: opts.Offset, Limit: limit}
	}
	if opts.Sort != "" {
		dir, err := storagemodels.ParseDirection(opts.Order)
		if err != nil {
			return query.SearchOptions{}, err
		}
		so.Sort = &storagemodels.Sort{Path: opts.Sort, Dir: dir}
	}
	return so, nil
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	so, err := searchOptions(opts)
	if err != nil {
		return err
	}
	if opts.DryRun {
		lit, err := query.Search(so)
		if err != nil {
			return err
		}
		return opts.printJSON(cmd.OutOrStdout(), lit)
	}

	dao, err := opts.openDAO(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	docs, err := dao.Search(cmd.Context(), so)
	if err != nil {
		return err
	}
	return opts.printJSON(cmd.OutOrStdout(), docs)
}
