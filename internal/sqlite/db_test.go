package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully and are repeatable
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", "contacts").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "contacts table not found")

	require.NoError(t, db.RunMigrations())
}

// TestContactsTable verifies the email uniqueness constraint
func TestContactsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO contacts (id, first_name, last_name, email) VALUES (?, ?, ?, ?)`,
		"c1", "Ada", "Lovelace", "ada@example.com")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO contacts (id, first_name, last_name, email) VALUES (?, ?, ?, ?)`,
		"c2", "Other", "Person", "ada@example.com")
	require.Error(t, err, "should fail with duplicate email")
	require.True(t, isUniqueViolation(err))

	// NULL emails never collide
	_, err = db.ExecContext(ctx,
		`INSERT INTO contacts (id, first_name, last_name) VALUES (?, ?, ?), (?, ?, ?)`,
		"c3", "No", "Email", "c4", "Also", "None")
	require.NoError(t, err)
}
