package ledger

import "fmt"

// Store is the seam between the ledger's callers and its persistence. The
// default flat-file implementation rewrites the whole stream on update,
// acceptable at the documented scale (low thousands of records); SQLStore
// replaces that with single-row updates.
type Store interface {
	// Append adds one entry. Quote-path callers treat it as
	// fire-and-forget: a failure is logged, never surfaced to the
	// customer.
	Append(entry Entry) error

	// ReadAll returns entries in creation order, tolerating corrupt
	// records (skipped, not fatal). A positive limit returns only the
	// last limit entries.
	ReadAll(limit int) ([]Entry, error)

	// UpdateByID applies a patch to the entry with the given ID,
	// reporting whether it was found.
	UpdateByID(id string, patch Patch) (bool, error)
}

// PersistenceError reports a ledger I/O failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
