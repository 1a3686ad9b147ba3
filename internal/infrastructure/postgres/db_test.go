package postgres

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolWithConfigInvalidURL(t *testing.T) {
	_, err := NewPoolWithConfig(context.Background(), PoolConfig{DatabaseURL: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	cfg := PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db",
		MaxConns:       1,
		ConnectTimeout: 500 * time.Millisecond,
	}

	_, err := NewPoolWithConfig(context.Background(), cfg)
	require.Error(t, err)
}

func TestRunMigrationsMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")

	err := RunMigrations("postgres://invalid:5432/db", missing, zerolog.Nop())
	require.Error(t, err)
}

// Every schema step must be reversible so test databases can be rebuilt.
func TestMigrationsArePaired(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "migrations")
	files, err := os.ReadDir(dir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, f := range files {
		name := f.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
	for _, step := range []string{"000001_create_ledgers", "000002_create_entries", "000003_create_finalizations"} {
		assert.True(t, ups[step], "missing migration %s", step)
	}
}
