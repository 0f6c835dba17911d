package sqlite

import (
	"database/sql"
	"time"

	"github.com/webosbrew/jailfetch/internal/storage"
)

type FetchRepository struct {
	db *sql.DB
}

func NewFetchRepository(db *sql.DB) *FetchRepository {
	return &FetchRepository{db: db}
}

// TrackFetch appends one attempt to the history. The completion time is
// stamped here unless the record already carries one.
func (r *FetchRepository) TrackFetch(rec storage.FetchRecord) error {
	completedAt := rec.CompletedAt
	if completedAt == "" {
		completedAt = time.Now().Format(time.RFC3339)
	}

	_, err := r.db.Exec(
		`INSERT INTO fetches (url, target_path, status, bytes, completed_at) VALUES (?, ?, ?, ?, ?)`,
		rec.URL, rec.TargetPath, rec.Status, rec.Bytes, completedAt,
	)

	return err
}

func (r *FetchRepository) GetFetches() ([]storage.FetchRecord, error) {
	rows, err := r.db.Query(`SELECT url, target_path, status, bytes, completed_at FROM fetches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fetches []storage.FetchRecord

	for rows.Next() {
		var record storage.FetchRecord

		var bytes sql.NullInt64

		if err := rows.Scan(&record.URL, &record.TargetPath, &record.Status, &bytes, &record.CompletedAt); err != nil {
			return nil, err
		}

		if bytes.Valid {
			record.Bytes = bytes.Int64
		}

		fetches = append(fetches, record)
	}

	return fetches, rows.Err()
}
