package store

import (
	"context"
	"database/sql"
	"time"
)

// KeywordStatus is the lifecycle state of one keyword
type KeywordStatus string

const (
	StatusPending     KeywordStatus = "pending"
	StatusProcessing  KeywordStatus = "processing"
	StatusCompleted   KeywordStatus = "completed"
	StatusFailed      KeywordStatus = "failed"
	StatusInterrupted KeywordStatus = "interrupted"
)

// Keyword is one unit of search work whose results are being collected
type Keyword struct {
	ID               int64
	Keyword          string
	TotalResults     int
	ProcessedResults int
	Status           KeywordStatus
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ErrorMessage     string
}

// InsertKeywords loads keywords into the store, ignoring duplicates. It
// reports how many of the given keywords were newly inserted.
func (s *Store) InsertKeywords(ctx context.Context, keywords []string) (int, error) {
	inserted := 0
	for _, keyword := range keywords {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO keywords (keyword) VALUES (?)`, keyword)
		if err != nil {
			return inserted, storeErr("failed to insert keyword %q: %v", keyword, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, storeErr("failed to read insert result for %q: %v", keyword, err)
		}
		if affected > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// MarkProcessing transitions a keyword to processing and records the start
// timestamp
func (s *Store) MarkProcessing(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE keywords
        SET status = ?, started_at = ?
        WHERE id = ?`,
		StatusProcessing, formatTime(time.Now()), id)
	if err != nil {
		return storeErr("failed to mark keyword %d processing: %v", id, err)
	}
	return nil
}

// MarkProgress records the known total and processed counters for a keyword
func (s *Store) MarkProgress(ctx context.Context, id int64, totalResults, processed int) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE keywords
        SET total_results = ?, processed_results = ?
        WHERE id = ?`,
		totalResults, processed, id)
	if err != nil {
		return storeErr("failed to record progress for keyword %d: %v", id, err)
	}
	return nil
}

// MarkCompleted transitions a keyword to its completed terminal state
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusCompleted, "")
}

// MarkFailed records a failure with its error message. Progress counters
// recorded before the failure are preserved.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.finish(ctx, id, StatusFailed, message)
}

// MarkInterrupted records a cooperative shutdown with partial progress
// preserved
func (s *Store) MarkInterrupted(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusInterrupted, "")
}

func (s *Store) finish(ctx context.Context, id int64, status KeywordStatus, message string) error {
	var err error
	if message != "" {
		_, err = s.db.ExecContext(ctx, `
            UPDATE keywords
            SET status = ?, error_message = ?, completed_at = ?
            WHERE id = ?`,
			status, message, formatTime(time.Now()), id)
	} else {
		_, err = s.db.ExecContext(ctx, `
            UPDATE keywords
            SET status = ?, completed_at = ?
            WHERE id = ?`,
			status, formatTime(time.Now()), id)
	}
	if err != nil {
		return storeErr("failed to mark keyword %d %s: %v", id, status, err)
	}
	return nil
}

// ListResumable returns the keywords eligible for collection in creation
// order. The base set is pending and failed keywords; includeInterrupted
// widens it to keywords cut short by a previous shutdown.
func (s *Store) ListResumable(ctx context.Context, includeInterrupted bool) ([]Keyword, error) {
	query := `
        SELECT id, keyword, total_results, processed_results, status,
               started_at, completed_at, error_message
        FROM keywords
        WHERE status IN ('pending', 'failed')
        ORDER BY id`
	if includeInterrupted {
		query = `
        SELECT id, keyword, total_results, processed_results, status,
               started_at, completed_at, error_message
        FROM keywords
        WHERE status IN ('pending', 'failed', 'interrupted')
        ORDER BY id`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("failed to list resumable keywords: %v", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		keyword, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, keyword)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to iterate resumable keywords: %v", err)
	}

	return keywords, nil
}

// GetKeyword looks up one keyword by its text
func (s *Store) GetKeyword(ctx context.Context, text string) (*Keyword, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, keyword, total_results, processed_results, status,
               started_at, completed_at, error_message
        FROM keywords
        WHERE keyword = ?`, text)

	keyword, err := scanKeyword(row)
	if err != nil {
		return nil, err
	}
	return &keyword, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanKeyword(row rowScanner) (Keyword, error) {
	var (
		keyword      Keyword
		status       string
		startedAt    sql.NullString
		completedAt  sql.NullString
		errorMessage sql.NullString
	)

	err := row.Scan(&keyword.ID, &keyword.Keyword, &keyword.TotalResults,
		&keyword.ProcessedResults, &status, &startedAt, &completedAt, &errorMessage)
	if err != nil {
		return Keyword{}, storeErr("failed to scan keyword row: %v", err)
	}

	keyword.Status = KeywordStatus(status)
	keyword.StartedAt = parseTime(startedAt)
	keyword.CompletedAt = parseTime(completedAt)
	keyword.ErrorMessage = errorMessage.String

	return keyword, nil
}

func parseTime(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value.String)
	if err != nil {
		return nil
	}
	return &t
}
