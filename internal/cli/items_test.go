/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docstore/datastore/mock"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// run executes the root command against client and returns stdout.
func run(t *testing.T, client *mock.Client, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCommand(&RootOptions{client: client})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"id":"stdin","_partitionKey":"User"}`))
	cmd.SetArgs(append(args, "--database", "production", "--container", "items"))
	err := cmd.Execute()
	return out.String(), err
}

func decodeDoc(t *testing.T, s string) storagemodels.Document {
	t.Helper()
	var doc storagemodels.Document
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestItemCommands(t *testing.T) {
	client := mock.New()

	out, err := run(t, client, "create", "--data", `{"id":"1","_partitionKey":"User","name":"Adam"}`)
	require.NoError(t, err)
	created := decodeDoc(t, out)
	assert.Equal(t, "Adam", created["name"])
	assert.Contains(t, created, "createdOn")

	out, err = run(t, client, "get", "1", "-p", "User")
	require.NoError(t, err)
	assert.Equal(t, "Adam", decodeDoc(t, out)["name"])

	out, err = run(t, client, "update", "--data", `{"id":"1","name":"Eve"}`, "-p", "User")
	require.NoError(t, err)
	updated := decodeDoc(t, out)
	assert.Equal(t, "Eve", updated["name"])
	assert.Contains(t, updated, "updatedOn")

	out, err = run(t, client, "get", "1", "-p", "User", "--strip-meta")
	require.NoError(t, err)
	stripped := decodeDoc(t, out)
	assert.NotContains(t, stripped, "_partitionKey")
	assert.NotContains(t, stripped, "_ts")
	assert.Equal(t, "1", stripped["id"])

	out, err = run(t, client, "delete", "1", "-p", "User")
	require.NoError(t, err)
	assert.Equal(t, float64(1), decodeDoc(t, out)["ttl"])

	out, err = run(t, client, "query", "-p", "User")
	require.NoError(t, err)
	var docs []storagemodels.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, float64(1), docs[0]["ttl"])

	client.Expire()
	_, err = run(t, client, "get", "1", "-p", "User")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateInputs(t *testing.T) {
	client := mock.New()

	out, err := run(t, client, "create", "--data", `{"name":"NoKey"}`, "-p", "Link")
	require.NoError(t, err)
	doc := decodeDoc(t, out)
	assert.Equal(t, "Link", doc["_partitionKey"])
	assert.NotEmpty(t, doc["id"])

	out, err = run(t, client, "create", "--data", "-")
	require.NoError(t, err)
	assert.Equal(t, "stdin", decodeDoc(t, out)["id"])

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"file","_partitionKey":"User"}`), 0o600))
	out, err = run(t, client, "create", "--data", "@"+path)
	require.NoError(t, err)
	assert.Equal(t, "file", decodeDoc(t, out)["id"])

	_, err = run(t, client, "create", "--data", `[1,2]`)
	assert.Error(t, err)

	_, err = run(t, client, "create", "--data", `{"id":"file","_partitionKey":"User"}`)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestUpdateRequiresID(t *testing.T) {
	client := mock.New()

	_, err := run(t, client, "update", "--data", `{"name":"x"}`, "-p", "User")
	assert.True(t, errors.IsMissingIdentifier(err))
	assert.Zero(t, client.Calls(mock.OpEnsureDatabase))
}

func TestSearchCommand(t *testing.T) {
	client := mock.New()
	_, err := run(t, client, "create", "--data", `{"id":"1","_partitionKey":"User","type":"User","firstName":"Adam"}`)
	require.NoError(t, err)

	out, err := run(t, client, "search", "--type", "User", "--item", `{"firstName":"Adam"}`)
	require.NoError(t, err)
	var docs []storagemodels.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	assert.Len(t, docs, 1)

	q := client.Queries()[0]
	assert.Equal(t, "User", q.Partition)
	assert.Contains(t, q.Text, "ORDER BY c._ts DESC OFFSET 0 LIMIT 10")

	_, err = run(t, client, "search", "--type", "User", "--item", `{"firstName":"Adam"}`, "--sort", "firstName", "--order", "asc", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, client.Queries()[1].Text, "ORDER BY c.firstName ASC OFFSET 0 LIMIT 3")

	_, err = run(t, client, "search", "--type", "User", "--item", `[]`)
	assert.True(t, errors.IsValidationError(err))
}

func TestSearchDryRun(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSearchCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--type", "User", "--item", `{"firstName":"Adam"}`, "--dry-run"})

	require.NoError(t, cmd.Execute())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "search_dry_run", buf.Bytes())
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: memory\ndatabase: fromfile\ncontainer: items\n"), 0o600))

	opts := &RootOptions{ConfigPath: path}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Database)

	opts.Database = "override"
	cfg, err = opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "override", cfg.Database)

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DOCSTORE_CONTAINER=fromenv\n"), 0o600))
	t.Setenv("DOCSTORE_CONTAINER", "")
	require.NoError(t, os.Unsetenv("DOCSTORE_CONTAINER"))
	opts.EnvFile = envPath
	cfg, err = opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Container)
}
