package ledger

import (
	"database/sql"
	"time"

	"github.com/afjltd/quotedesk/internal/db"
)

// SQLStore keeps the ledger in SQLite. It holds the same append-only
// discipline as the flat file but gains indexed reads and single-row
// updates, the intended upgrade path once record volume outgrows a
// whole-file rewrite.
type SQLStore struct {
	db *db.DB
}

func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) Append(entry Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO quotes (
			id, timestamp, service, pickup, destination, passengers,
			date, time, return_type, quote_low, quote_high, quote_total,
			source, converted, converted_at, converted_value,
			lost_reason, customer_name, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Service, entry.Pickup, entry.Destination, entry.Passengers,
		entry.Date, entry.Time, string(entry.ReturnType),
		entry.QuoteLow, entry.QuoteHigh, entry.QuoteTotal,
		string(entry.Source), entry.Converted,
		nullTime(entry.ConvertedAt), entry.ConvertedValue,
		entry.LostReason, entry.CustomerName, entry.Notes,
	)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

func (s *SQLStore) ReadAll(limit int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, service, pickup, destination, passengers,
		       date, time, return_type, quote_low, quote_high, quote_total,
		       source, converted, converted_at, converted_value,
		       lost_reason, customer_name, notes
		FROM quotes ORDER BY id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		// Last N in creation order.
		rows, err = s.db.Query(`SELECT * FROM (`+query+` DESC LIMIT ?) ORDER BY id`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var convertedAt sql.NullString
		if err := rows.Scan(
			&e.ID, &ts, &e.Service, &e.Pickup, &e.Destination, &e.Passengers,
			&e.Date, &e.Time, &e.ReturnType, &e.QuoteLow, &e.QuoteHigh, &e.QuoteTotal,
			&e.Source, &e.Converted, &convertedAt, &e.ConvertedValue,
			&e.LostReason, &e.CustomerName, &e.Notes,
		); err != nil {
			return nil, &PersistenceError{Op: "read", Err: err}
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if convertedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, convertedAt.String); err == nil {
				e.ConvertedAt = &t
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	return entries, nil
}

func (s *SQLStore) UpdateByID(id string, patch Patch) (bool, error) {
	entries, err := s.readOne(id)
	if err != nil {
		return false, err
	}
	if entries == nil {
		return false, nil
	}
	patch.Apply(entries)

	res, err := s.db.Exec(`
		UPDATE quotes SET
			converted = ?, converted_at = ?, converted_value = ?,
			lost_reason = ?, customer_name = ?, notes = ?
		WHERE id = ?`,
		entries.Converted, nullTime(entries.ConvertedAt), entries.ConvertedValue,
		entries.LostReason, entries.CustomerName, entries.Notes, id,
	)
	if err != nil {
		return false, &PersistenceError{Op: "update", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLStore) readOne(id string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, timestamp, service, pickup, destination, passengers,
		       date, time, return_type, quote_low, quote_high, quote_total,
		       source, converted, converted_at, converted_value,
		       lost_reason, customer_name, notes
		FROM quotes WHERE id = ?`, id)

	var e Entry
	var ts string
	var convertedAt sql.NullString
	err := row.Scan(
		&e.ID, &ts, &e.Service, &e.Pickup, &e.Destination, &e.Passengers,
		&e.Date, &e.Time, &e.ReturnType, &e.QuoteLow, &e.QuoteHigh, &e.QuoteTotal,
		&e.Source, &e.Converted, &convertedAt, &e.ConvertedValue,
		&e.LostReason, &e.CustomerName, &e.Notes,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	if convertedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, convertedAt.String); err == nil {
			e.ConvertedAt = &t
		}
	}
	return &e, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
