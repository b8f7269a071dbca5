package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM trace_frames").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"runs", "shared_texts", "trace_frames", "trace_frame_leaf_assoc"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpenExisting_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := OpenExisting(path)
	if err == nil {
		t.Fatal("expected error for missing database, got nil")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("OpenExisting() must not create the database file")
	}
}

func TestOpenExisting_Present(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.Close()

	s, err = OpenExisting(path)
	if err != nil {
		t.Fatalf("OpenExisting() failed: %v", err)
	}
	s.Close()
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

func TestBeginRead_RollbackTwice(t *testing.T) {
	s := createTestStore(t)

	tx, err := s.BeginRead(context.Background())
	if err != nil {
		t.Fatalf("BeginRead() failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("first Rollback() failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("second Rollback() should be a no-op: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t)

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Schema table tests

func TestSchema_TraceFramesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "trace_frames")

	expected := []string{
		"id", "run_id", "kind", "caller", "caller_port", "callee", "callee_port",
		"line", "begin_column", "end_column",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("trace_frames table missing column %q", col)
		}
	}
}

func TestSchema_LeafAssocTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "trace_frame_leaf_assoc")

	expected := []string{"trace_frame_id", "leaf_id", "trace_length"}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("trace_frame_leaf_assoc table missing column %q", col)
		}
	}
}

func TestSchema_TraceFramesIndexes(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "trace_frames")

	expected := []string{
		"idx_trace_frames_caller",
		"idx_trace_frames_callee",
	}

	for _, idx := range expected {
		if !contains(indexes, idx) {
			t.Errorf("trace_frames table missing index %q", idx)
		}
	}
}

// Constraint tests

func TestConstraint_ForeignKeyFrameToRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO trace_frames (run_id, kind, caller, caller_port, callee, callee_port)
		VALUES (99, 'PRECONDITION', 'a', 'root', 'b', 'param0')
	`)
	if err == nil {
		t.Error("expected foreign key violation for missing run, got nil")
	}
}

func TestConstraint_RunStatusCheck(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO runs (status) VALUES ('RUNNING')`)
	if err == nil {
		t.Error("expected CHECK violation for unknown status, got nil")
	}
}

func TestConstraint_SharedTextUnique(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO shared_texts (kind, contents) VALUES ('SINK', 'sink1')`); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := s.db.Exec(`INSERT INTO shared_texts (kind, contents) VALUES ('SINK', 'sink1')`); err == nil {
		t.Error("expected UNIQUE violation for duplicate (kind, contents), got nil")
	}
	if _, err := s.db.Exec(`INSERT INTO shared_texts (kind, contents) VALUES ('SOURCE', 'sink1')`); err != nil {
		t.Errorf("same contents under another kind should be allowed: %v", err)
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}

	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		var version int
		err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
		if err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}

		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}

		s.Close()
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	// Apply schema but NOT migrations (simulates pre-migration state)
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	if contains(getTableIndexes(t, db, "trace_frames"), "idx_trace_frames_callee") {
		t.Fatal("v0 schema should not carry the callee index")
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	if !contains(getTableIndexes(t, s.db, "trace_frames"), "idx_trace_frames_callee") {
		t.Error("expected idx_trace_frames_callee after migration")
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
