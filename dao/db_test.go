package dao

import (
	"path/filepath"
	"testing"

	"github.com/asdine/storm/v3"
	"github.com/stretchr/testify/require"
)

func createDB(t *testing.T) Db {
	t.Helper()
	db, err := storm.Open(filepath.Join(t.TempDir(), "storm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetClient(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storm.db")
	db, err := GetClient(dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.FileExists(t, dbPath, "Expected that db file exists")

	// the client is a process-wide singleton
	again, err := GetClient(filepath.Join(t.TempDir(), "other.db"))
	require.NoError(t, err)
	require.Equal(t, db, again)
}
