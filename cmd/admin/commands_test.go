package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	color.NoColor = true
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "admin.db")+"?_foreign_keys=on")
	t.Setenv("ADMIN_PASSWORD", "bootstrap-pw")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date (sqlite)")

	out, err = run(t, "seed-admin")
	require.NoError(t, err)
	assert.Contains(t, out, `admin account "admin" present`)
	_, err = run(t, "seed-admin")
	require.NoError(t, err)

	out, err = run(t, "create-user", "alice", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "created user alice")

	_, err = run(t, "create-user", "alice", "--password", "pw")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "create-user", "bob")
	assert.Error(t, err, "password flag is required")

	out, err = run(t, "create-user", "ops", "--password", "pw", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin ops")

	out, err = run(t, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "ops")
	assert.Regexp(t, `admin\s+admin`, out)
}
