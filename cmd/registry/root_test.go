package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/registry/pkg/auth"
)

// writeConfig writes a config using a file-backed SQLite database in a temp dir
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	models, err := filepath.Abs("../../testdata/models.yaml")
	require.NoError(t, err)

	cfg := fmt.Sprintf(`env: test
database:
  driver: sqlite
  dsn: %s
log:
  level: error
auth:
  jwt_secret: cli-secret
models_file: %s
`, filepath.Join(dir, "registry.db"), models)

	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedImportExport(t *testing.T) {
	cfg := writeConfig(t)
	fixtures, err := filepath.Abs("../../testdata/fixtures.yaml")
	require.NoError(t, err)

	_, err = run(t, cfg, "migrate")
	require.NoError(t, err)

	out, err := run(t, cfg, "seed", fixtures)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 15 fixtures")

	csvPath := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("FirstName,Surname\nAlexis,Bernard\n"), 0o600))
	out, err = run(t, cfg, "import", "RegistryPageTestContact", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1, skipped 0")

	out, err = run(t, cfg, "export", "contact-search", "-q", "FirstName=Alex", "-q", "Sort=FirstName", "-q", "Dir=DESC")
	require.NoError(t, err)
	assert.Equal(t, "First name,Surname\nAlexis,Bernard\nAlexander,Bernie\n", out)

	_, err = run(t, cfg, "export", "contact-search", "-q", "broken")
	assert.Error(t, err)

	_, err = run(t, cfg, "export", "missing-page")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "token", "ops", "--ttl", "1m")
	require.NoError(t, err)

	issuer, err := auth.NewTokenIssuer("cli-secret", time.Minute)
	require.NoError(t, err)
	claims, err := issuer.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, auth.ScopeAdmin, claims.Scope)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o600))

	_, err := run(t, path, "migrate")
	assert.Error(t, err)
}

type closeFailer struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return errors.New("disk full")
}

func TestWriteAndClose(t *testing.T) {
	out := &closeFailer{}
	err := writeAndClose(out, func(w io.Writer) error {
		_, err := io.WriteString(w, "ID\n")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, out.closed)
	assert.Equal(t, "ID\n", out.String())

	// a write failure wins over the close failure
	out = &closeFailer{}
	err = writeAndClose(out, func(io.Writer) error { return errors.New("query failed") })
	require.EqualError(t, err, "query failed")
	assert.True(t, out.closed)
}
