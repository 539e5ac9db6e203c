package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mossfirth/hearthward/internal/database"
)

// testDB opens a throwaway on-disk database so concurrent connections in the
// pool all see the same data, unlike :memory: which is per-connection.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testHousehold seeds a household in UTC plus one member and returns both ids.
func testHousehold(t *testing.T, db *sql.DB) (householdID, memberID int64) {
	t.Helper()
	h, err := NewHouseholdStore(db).Create("The Burrow", "UTC")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	m, err := NewMemberStore(db).Create(h.ID, "Pip", "🦊")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return h.ID, m.ID
}
