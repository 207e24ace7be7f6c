package audit

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileLogger appends one JSON entry per line. Write failures are logged
// and swallowed so an audit problem never blocks staff work.
type FileLogger struct {
	mu   sync.Mutex
	path string
}

func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileLogger{path: path}, nil
}

func (l *FileLogger) Log(actor string, action Action, quoteID string, detail map[string]string) {
	entry := NewEntry(actor, action, quoteID, detail)

	line, err := json.Marshal(entry)
	if err != nil {
		log.Printf("audit: marshaling entry: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("audit: opening %s: %v", l.path, err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		log.Printf("audit: writing entry: %v", err)
	}
}
