package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, ":8000", c.Addr())
	assert.Equal(t, "gpt-4.1-mini", c.LLM.Model)
	assert.Equal(t, "gpt-image-1", c.LLM.ImageModel)
	assert.Equal(t, "1024x1024", c.LLM.ImageSize)
	assert.Equal(t, 30*time.Second, c.LLM.Timeout())
	assert.Equal(t, 2*time.Minute, c.LLM.ImageTimeout())
	assert.Equal(t, "echodiary", c.Storage.Bucket)
	assert.Equal(t, 300*time.Second, c.Storage.PresignTTL())
	assert.Equal(t, 120*time.Minute, c.Auth.TokenTTL())
	assert.False(t, c.LLM.Disabled)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 9100
llm:
  model: from-yaml
  disabled: false
storage:
  bucket: yaml-bucket
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("OPENAI_MODEL", "from-env")
	t.Setenv("ECHODIARY_DISABLE_LLM", "true")
	t.Setenv("JWT_EXPIRE_MINUTES", "15")
	t.Setenv("MINIO_PUBLIC_BASE_URL", "https://cdn.example.com")

	c := Load(path)

	assert.Equal(t, ":9100", c.Addr())
	assert.Equal(t, "from-env", c.LLM.Model)
	assert.True(t, c.LLM.Disabled)
	assert.Equal(t, "yaml-bucket", c.Storage.Bucket)
	assert.Equal(t, "https://cdn.example.com", c.Storage.PublicBaseURL)
	assert.Equal(t, 15*time.Minute, c.Auth.TokenTTL())
	// untouched defaults survive both layers
	assert.Equal(t, "gpt-image-1", c.LLM.ImageModel)
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, Default().Auth.AdminPassword, c.Auth.AdminPassword)
}

func TestResolveDriver(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"explicit", DatabaseConfig{Driver: "SQLite", URL: "postgres://x"}, DriverSQLite},
		{"postgres url", DatabaseConfig{URL: "postgres://u:p@localhost:5432/echodiary"}, DriverPostgres},
		{"postgresql url", DatabaseConfig{URL: "postgresql://localhost/echodiary"}, DriverPostgres},
		{"sqlite file", DatabaseConfig{URL: "file:echodiary.db?_foreign_keys=on"}, DriverSQLite},
		{"sqlite memory", DatabaseConfig{URL: ":memory:"}, DriverSQLite},
		{"mysql dsn", DatabaseConfig{URL: "u:p@tcp(localhost:3306)/echodiary"}, DriverMySQL},
		{"empty", DatabaseConfig{}, DriverMySQL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolveDriver())
		})
	}
}

func TestMySQLDSNFromFields(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 3307, User: "echo", Password: "pw", Name: "diary"}
	dsn := d.mysqlDSN()
	assert.Contains(t, dsn, "echo:pw@tcp(db:3307)/diary")
	assert.Contains(t, dsn, "parseTime=true")

	d.URL = "raw-dsn"
	assert.Equal(t, "raw-dsn", d.mysqlDSN())
}

func TestOpenGormDB_SQLite(t *testing.T) {
	db, err := OpenGormDB(DatabaseConfig{URL: "file::memory:?_foreign_keys=on"})
	require.NoError(t, err)
	require.NotNil(t, db)
}
