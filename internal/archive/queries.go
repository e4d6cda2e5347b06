package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed width so that harvested_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Insert archives a single report body harvested at the given time.
func (s *Store) Insert(body string, harvestedAt time.Time) (*Report, error) {
	reports, err := s.InsertAll([]string{body}, harvestedAt)
	if err != nil {
		return nil, err
	}
	return reports[0], nil
}

// InsertAll archives every body in a single transaction.
func (s *Store) InsertAll(bodies []string, harvestedAt time.Time) ([]*Report, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO reports (id, crash_type, title, harvested_at, size_bytes, compression, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, wrapErr("failed to prepare insert", err)
	}
	defer stmt.Close()

	at := harvestedAt.UTC()
	reports := make([]*Report, 0, len(bodies))
	for _, body := range bodies {
		ct, title := Classify(body)
		r := &Report{
			ID:          uuid.NewString(),
			Type:        ct,
			Title:       title,
			HarvestedAt: at,
			SizeBytes:   int64(len(body)),
			Body:        body,
		}
		data, encoding := encodeBody(body, s.compress)
		if _, err := stmt.Exec(r.ID, string(r.Type), r.Title, at.Format(timeLayout), r.SizeBytes, encoding, data); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("failed to insert report: %w", err)
		}
		reports = append(reports, r)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reports: %w", err)
	}
	return reports, nil
}

// List returns archived reports without bodies, newest first. A limit of 0
// or less returns every report.
func (s *Store) List(limit int) ([]*Report, error) {
	query := `
		SELECT id, crash_type, title, harvested_at, size_bytes
		FROM reports
		ORDER BY harvested_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("failed to list reports", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var r Report
		var ct, harvestedAt string
		if err := rows.Scan(&r.ID, &ct, &r.Title, &harvestedAt, &r.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.Type = crashType(ct)
		if r.HarvestedAt, err = time.Parse(time.RFC3339Nano, harvestedAt); err != nil {
			return nil, fmt.Errorf("failed to parse harvested_at for %s: %w", r.ID, err)
		}
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// Get returns the report whose ID is id or starts with id, body included.
func (s *Store) Get(id string) (*Report, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(`
		SELECT id, crash_type, title, harvested_at, size_bytes, compression, body
		FROM reports
		WHERE id = ? OR substr(id, 1, ?) = ?
		LIMIT 2
	`, id, len(id), id)
	if err != nil {
		return nil, wrapErr("failed to get report", err)
	}
	defer rows.Close()

	var found []*Report
	for rows.Next() {
		var r Report
		var ct, harvestedAt, encoding string
		var data []byte
		if err := rows.Scan(&r.ID, &ct, &r.Title, &harvestedAt, &r.SizeBytes, &encoding, &data); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.Type = crashType(ct)
		if r.HarvestedAt, err = time.Parse(time.RFC3339Nano, harvestedAt); err != nil {
			return nil, fmt.Errorf("failed to parse harvested_at for %s: %w", r.ID, err)
		}
		if r.Body, err = decodeBody(data, encoding); err != nil {
			return nil, fmt.Errorf("report %s: %w", r.ID, err)
		}
		found = append(found, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// Delete removes the report with the exact ID.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return wrapErr("failed to delete report", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of archived reports.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr("failed to count reports", err)
	}
	return n, nil
}
