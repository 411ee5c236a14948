/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/config"
	"github.com/suparena/docstore/internal/logging"
	"github.com/suparena/docstore/storagemodels"
)

// loadConfig merges the config file, the environment and flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.EnvFile != "" {
		if err := config.LoadEnvFile(o.EnvFile); err != nil {
			return nil, err
		}
	}

	cfg := &config.Config{}
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Overlay(config.FromEnv())
	cfg.Overlay(&config.Config{Database: o.Database, Container: o.Container})
	if o.client != nil && cfg.Backend == "" {
		cfg.Backend = config.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDAO builds the DAO the command works on.
func (o *RootOptions) openDAO(ctx context.Context, cmd *cobra.Command) (*docstore.DAO, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	logger := logging.New(logging.Options{Level: level, Format: "console", Output: cmd.ErrOrStderr()})

	opts := []docstore.Option{
		docstore.WithLogger(logger),
		docstore.WithPartitionKeyPath(cfg.PartitionKeyPath),
	}
	if o.client != nil {
		return docstore.NewWithClient(o.client, cfg.Database, cfg.Container, opts...), nil
	}
	return docstore.New(ctx, cfg, opts...)
}

// printJSON writes v as indented JSON.
func (o *RootOptions) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o.present(v)); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func (o *RootOptions) present(v any) any {
	if !o.StripMeta {
		return v
	}
	switch t := v.(type) {
	case storagemodels.Document:
		return storagemodels.StripMeta(t)
	case []storagemodels.Document:
		out := make([]storagemodels.Document, len(t))
		for i, d := range t {
			out[i] = storagemodels.StripMeta(d)
		}
		return out
	}
	return v
}

// readDocument decodes a JSON object from data, or from the file it names
// when prefixed with @, or from stdin when it is "-".
func readDocument(cmd *cobra.Command, data string) (storagemodels.Document, error) {
	var raw []byte
	switch {
	case data == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read document file: %w", err)
		}
		raw = b
	default:
		raw = []byte(data)
	}

	var doc storagemodels.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid document JSON: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document must be a JSON object")
	}
	return doc, nil
}

// parseValue decodes s as JSON when it is valid JSON and returns it as a
// string otherwise.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
