// Package sqlitetest provides throwaway databases for tests in other packages.
package sqlitetest

import (
	"testing"

	"github.com/rpggio/calldesk/internal/sqlite"
	"github.com/stretchr/testify/require"
)

// NewDB opens a migrated in-memory database closed on test cleanup.
func NewDB(t testing.TB) *sqlite.DB {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.RunMigrations(), "failed to run migrations")

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
