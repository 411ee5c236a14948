/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/query"
	"github.com/suparena/docstore/storagemodels"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Partitions []string
	Select     string
	Alias      string
	Where      []string
	Params     []string
	Top        int
	Offset     int
	Limit      int
	OrderBy    string
	Order      string
	DryRun     bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Build and run a query",
		Long: `Build a query with the fluent builder and run it against one or more partitions.

Each --where is one predicate; predicates are joined with AND:
  path=value   path<value   path<=value   path>value   path>=value
  path?        (IS_DEFINED)
  path~text    (case-insensitive CONTAINS)

Values are decoded as JSON when possible (21, true, "21"), otherwise taken as
strings. A value starting with @ references a --param.

Example:
  docstore query -p User --where 'type=@Type' --where 'age>=21' \
    --param '@Type=User' --order-by createdOn --order desc --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Partitions, "partition", "p", nil, "partition key(s) to query")
	cmd.Flags().StringVar(&opts.Select, "select", "", `field to project, or "count"`)
	cmd.Flags().StringVar(&opts.Alias, "alias", "", "alias for the projected field")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "predicate (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "bound parameter @name=value (repeatable)")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "return at most n rows (conflicts with --offset/--limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "rows to return")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "field to order by")
	cmd.Flags().StringVar(&opts.Order, "order", "asc", "sort direction (asc|desc)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the query literal without running it")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	lit, err := buildQuery(opts, cmd)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return opts.printJSON(cmd.OutOrStdout(), lit)
	}

	dao, err := opts.openDAO(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	docs, err := dao.Query(cmd.Context(), lit)
	if err != nil {
		return err
	}
	return opts.printJSON(cmd.OutOrStdout(), docs)
}

func buildQuery(opts *QueryOptions, cmd *cobra.Command) (storagemodels.QueryLiteral, error) {
	if len(opts.Partitions) == 0 {
		return storagemodels.QueryLiteral{}, errors.NewValidationError("partition", "at least one --partition is required")
	}

	qb := query.NewQueryBuilder(opts.Partitions...)
	if cmd.Flags().Changed("select") {
		if opts.Alias != "" {
			qb.Select(opts.Select, opts.Alias)
		} else {
			qb.Select(opts.Select)
		}
	}

	for _, expr := range opts.Where {
		w, err := parseWhere(expr)
		if err != nil {
			return storagemodels.QueryLiteral{}, err
		}
		qb.Match(w)
	}

	if cmd.Flags().Changed("top") {
		qb.Top(opts.Top)
	}
	if cmd.Flags().Changed("offset") || cmd.Flags().Changed("limit") {
		qb.Paginate(opts.Offset, opts.Limit)
	}
	if opts.OrderBy != "" {
		dir, err := storagemodels.ParseDirection(opts.Order)
		if err != nil {
			return storagemodels.QueryLiteral{}, err
		}
		qb.OrderBy(opts.OrderBy, dir)
	}

	params, err := parseParams(opts.Params)
	if err != nil {
		return storagemodels.QueryLiteral{}, err
	}
	return qb.Build(params...)
}

// parseWhere turns a --where expression into a predicate.
func parseWhere(expr string) (*query.Where, error) {
	expr = strings.TrimSpace(expr)
	i := strings.IndexAny(expr, "=<>~")
	if i < 0 && strings.HasSuffix(expr, "?") {
		path := strings.TrimSpace(strings.TrimSuffix(expr, "?"))
		return query.NewWhere(path).IsDefined(), nil
	}
	if i <= 0 {
		return nil, errors.NewMalformedPredicateError(expr, "expected path followed by =, <, <=, >, >=, ~ or ?")
	}
	path := strings.TrimSpace(expr[:i])
	op := expr[i : i+1]
	rest := expr[i+1:]
	if (op == "<" || op == ">") && strings.HasPrefix(rest, "=") {
		op += "="
		rest = rest[1:]
	}
	raw := strings.TrimSpace(rest)
	if raw == "" {
		return nil, errors.NewMalformedPredicateError(expr, "missing value")
	}

	w := query.NewWhere(path)
	switch op {
	case "=":
		return w.Eq(parseValue(raw)), nil
	case "<":
		return w.Lt(parseValue(raw)), nil
	case "<=":
		return w.LtOrEq(parseValue(raw)), nil
	case ">":
		return w.Gt(parseValue(raw)), nil
	case ">=":
		return w.GtOrEq(parseValue(raw)), nil
	case "~":
		return w.Contains(raw, true), nil
	}
	return nil, errors.NewMalformedPredicateError(expr, fmt.Sprintf("unknown operator %q", op))
}

// parseParams reads @name=value pairs.
func parseParams(pairs []string) ([]storagemodels.Parameter, error) {
	params := make([]storagemodels.Parameter, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || !strings.HasPrefix(name, "@") || len(name) < 2 {
			return nil, errors.NewValidationError("param", fmt.Sprintf("expected @name=value, got %q", pair))
		}
		params = append(params, query.Param(name, parseValue(value)))
	}
	return params, nil
}
