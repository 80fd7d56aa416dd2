package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================================================
// UNIT TESTS - Table naming and schema rendering
// ============================================================================

func TestNewTableNames(t *testing.T) {
	tests := []struct {
		prefix string
		notes  string
		depts  string
	}{
		{prefix: "dev_", notes: "dev_notes", depts: "dev_departments"},
		{prefix: "prod_", notes: "prod_notes", depts: "prod_departments"},
		{prefix: "", notes: "notes", depts: "departments"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			tables := NewTableNames(tt.prefix)
			if tables.Notes != tt.notes {
				t.Errorf("Notes = %q, want %q", tables.Notes, tt.notes)
			}
			if tables.Departments != tt.depts {
				t.Errorf("Departments = %q, want %q", tables.Departments, tt.depts)
			}
			if len(tables.All()) != 6 {
				t.Errorf("All() returned %d tables, want 6", len(tables.All()))
			}
		})
	}
}

func TestSchema_UsesPrefixEverywhere(t *testing.T) {
	ddl := Schema("test_")

	if strings.Contains(ddl, "{{prefix}}") {
		t.Fatal("schema still contains an unreplaced prefix placeholder")
	}
	for _, table := range NewTableNames("test_").All() {
		if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema does not create %s", table)
		}
	}
	if !strings.Contains(ddl, `title COLLATE "C"`) {
		t.Error("notes title index must use the C collation for range search")
	}
}

func TestWrapError(t *testing.T) {
	missing := &pgconn.PgError{Code: "42P01", Message: `relation "dev_notes" does not exist`}

	err := WrapError("list notes", missing)
	if !errors.Is(err, missing) {
		t.Fatalf("WrapError lost the cause: %v", err)
	}
	if !strings.Contains(err.Error(), "--migrate") {
		t.Errorf("missing table error should carry a migration hint, got %q", err)
	}

	other := WrapError("list notes", errors.New("boom"))
	if strings.Contains(other.Error(), "--migrate") {
		t.Errorf("unexpected migration hint: %q", other)
	}
}
