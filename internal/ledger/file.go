package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxBytes is the rotation threshold for the flat-file store.
const DefaultMaxBytes = 5 * 1024 * 1024

// FileStore persists entries as one JSON object per line. When the file
// exceeds maxBytes it is renamed to <path>.old before the next append, so
// at most one previous generation is retained.
type FileStore struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
}

// NewFileStore creates a flat-file store at path. maxBytes <= 0 selects
// the default 5MB rotation threshold.
func NewFileStore(path string, maxBytes int64) (*FileStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistenceError{Op: "init", Err: err}
	}
	return &FileStore{path: path, maxBytes: maxBytes}, nil
}

func (s *FileStore) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotateIfNeeded()

	line, err := json.Marshal(entry)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// rotateIfNeeded renames the file to <path>.old when it has grown past the
// threshold. Rotation failures are logged and the append proceeds, growth
// is preferable to losing the record.
func (s *FileStore) rotateIfNeeded() {
	info, err := os.Stat(s.path)
	if err != nil || info.Size() < s.maxBytes {
		return
	}
	if err := os.Rename(s.path, s.path+".old"); err != nil {
		log.Printf("ledger: rotation failed for %s: %v", s.path, err)
	}
}

func (s *FileStore) ReadAll(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(limit)
}

func (s *FileStore) readLocked(limit int) ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			log.Printf("ledger: skipping corrupt record in %s: %v", s.path, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// UpdateByID rewrites the whole file with the patch applied. Updates are
// rare (conversion outcomes entered by staff) so the full rewrite is
// acceptable at this scale.
func (s *FileStore) UpdateByID(id string, patch Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked(0)
	if err != nil {
		return false, err
	}

	found := false
	for i := range entries {
		if entries[i].ID == id {
			patch.Apply(&entries[i])
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return false, &PersistenceError{Op: "update", Err: err}
	}
	w := bufio.NewWriter(f)
	for i := range entries {
		line, err := json.Marshal(entries[i])
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return false, &PersistenceError{Op: "update", Err: err}
		}
		fmt.Fprintf(w, "%s\n", line)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return false, &PersistenceError{Op: "update", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return false, &PersistenceError{Op: "update", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return false, &PersistenceError{Op: "update", Err: err}
	}
	return true, nil
}
