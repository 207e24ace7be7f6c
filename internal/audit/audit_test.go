package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit-log.jsonl")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	l.Log("ops@afjltd.co.uk", ActionMarkedConverted, "q_1_aaaa", map[string]string{"value": "160"})
	l.Log("ops@afjltd.co.uk", ActionMarkedLost, "q_2_bbbb", map[string]string{"reason": "price"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Actor != "ops@afjltd.co.uk" || first.Action != ActionMarkedConverted || first.QuoteID != "q_1_aaaa" {
		t.Errorf("unexpected entry: %+v", first)
	}
	if first.ID == "" || first.Timestamp.IsZero() {
		t.Error("entries should be stamped with id and timestamp")
	}
	if entries[0].ID == entries[1].ID {
		t.Error("entries should have distinct ids")
	}
}
