package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hance08/dtl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDSN(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dsn, err := ResolveDSN(config.DatabaseConfig{Driver: "sqlite3", DSN: "~/data/dtl.db"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "dtl.db"), dsn)

	dsn, err = ResolveDSN(config.DatabaseConfig{Driver: "sqlite3"})
	require.NoError(t, err)
	assert.Equal(t, "dtl.db", filepath.Base(dsn))

	dsn, err = ResolveDSN(config.DatabaseConfig{Driver: "postgres", DSN: "postgres://localhost/dtl"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/dtl", dsn)

	_, err = ResolveDSN(config.DatabaseConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestNewAppWiresServices(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "dtl.db")

	application, cleanup, err := NewApp(context.Background(), cfg, os.DirFS(filepath.Join("..", "..")))
	require.NoError(t, err)
	defer cleanup()

	accounts, err := application.Service.Account.Seed(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	assert.NotNil(t, application.NewServer().Handler())
	assert.Len(t, application.Service.Submitter.Senders(), 2)
}

func TestLoaderBuildsOnce(t *testing.T) {
	l := NewLoader(os.DirFS(filepath.Join("..", "..")))

	_, err := l.Load(context.Background())
	require.Error(t, err)

	cfg := config.NewDefault()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "dtl.db")
	l.SetConfig(cfg)

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	l.Close()
	l.Close()
}
