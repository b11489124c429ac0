package db

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceListsEmbeddedMigrations(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	require.Equal(t, "init", name)

	sql, err := io.ReadAll(up)
	require.NoError(t, err)
	for _, table := range []string{"orders", "app_settings", "customers", "ledger_entries", "tracking_items", "invoices", "admin_users"} {
		require.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/jastip", MigrateURL("postgres://u:p@db:5432/jastip"))
	require.Equal(t, "pgx5://db/jastip", MigrateURL("postgresql://db/jastip"))
	require.Equal(t, "pgx5://already", MigrateURL("pgx5://already"))
}
