package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM quotes`).Scan(&count); err != nil {
		t.Fatalf("quotes table should exist: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quotedesk.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO quotes (id, timestamp, service) VALUES ('q_1_abcd', datetime('now'), 'private-hire')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
