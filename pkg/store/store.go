package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"arxivcollector/pkg/arxiv"
	errs "arxivcollector/pkg/errors"
	"arxivcollector/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS papers (
    arxiv_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    authors TEXT NOT NULL,
    abstract TEXT NOT NULL,
    categories TEXT NOT NULL,
    published_date TEXT,
    updated_date TEXT,
    pdf_url TEXT,
    entry_url TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS keywords (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    keyword TEXT UNIQUE NOT NULL,
    total_results INTEGER DEFAULT 0,
    processed_results INTEGER DEFAULT 0,
    status TEXT DEFAULT 'pending',
    started_at TEXT,
    completed_at TEXT,
    error_message TEXT
);

CREATE TABLE IF NOT EXISTS paper_keywords (
    paper_id TEXT NOT NULL,
    keyword_id INTEGER NOT NULL,
    PRIMARY KEY (paper_id, keyword_id),
    FOREIGN KEY (paper_id) REFERENCES papers (arxiv_id),
    FOREIGN KEY (keyword_id) REFERENCES keywords (id)
);

CREATE INDEX IF NOT EXISTS idx_papers_categories ON papers (categories);
CREATE INDEX IF NOT EXISTS idx_papers_published ON papers (published_date);
CREATE INDEX IF NOT EXISTS idx_keywords_status ON keywords (status);
CREATE INDEX IF NOT EXISTS idx_paper_keywords_paper ON paper_keywords (paper_id);
CREATE INDEX IF NOT EXISTS idx_paper_keywords_keyword ON paper_keywords (keyword_id);
`

// Store owns the durable representation of papers, keywords and the
// paper-to-keyword association
type Store struct {
	db     *sql.DB
	path   string
	logger logger.Logger
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr("failed to open database: %v", err)
	}

	// SQLite allows a single writer; serializing all access through one
	// connection avoids SQLITE_BUSY under the per-page commit pattern.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, storeErr("failed to ping database: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, storeErr("failed to create schema: %v", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logger.GetLogger(),
	}

	s.logger.InfoWithFields("database ready", map[string]interface{}{
		"path": path,
	})

	return s, nil
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPaper inserts a paper if its identifier is not already present.
// It reports whether a new row was inserted; an existing row keeps its
// original field values.
func (s *Store) UpsertPaper(ctx context.Context, paper *arxiv.Paper) (bool, error) {
	res, err := s.insertPaper(ctx, s.db, paper)
	if err != nil {
		return false, err
	}
	return res, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) insertPaper(ctx context.Context, db execer, paper *arxiv.Paper) (bool, error) {
	authors, err := json.Marshal(paper.Authors)
	if err != nil {
		return false, storeErr("failed to encode authors for %s: %v", paper.ArxivID, err)
	}
	categories, err := json.Marshal(paper.Categories)
	if err != nil {
		return false, storeErr("failed to encode categories for %s: %v", paper.ArxivID, err)
	}

	res, err := db.ExecContext(ctx, `
        INSERT OR IGNORE INTO papers
        (arxiv_id, title, authors, abstract, categories,
         published_date, updated_date, pdf_url, entry_url)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		paper.ArxivID, paper.Title, string(authors), paper.Abstract, string(categories),
		formatTime(paper.Published), formatTime(paper.Updated), paper.PDFURL, paper.EntryURL,
	)
	if err != nil {
		return false, storeErr("failed to insert paper %s: %v", paper.ArxivID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("failed to read insert result for %s: %v", paper.ArxivID, err)
	}
	return affected > 0, nil
}

// LinkPaperKeyword associates a paper with a keyword. It reports whether the
// pair was newly linked; re-linking an existing pair is a no-op.
func (s *Store) LinkPaperKeyword(ctx context.Context, paperID string, keywordID int64) (bool, error) {
	return s.linkPaperKeyword(ctx, s.db, paperID, keywordID)
}

func (s *Store) linkPaperKeyword(ctx context.Context, db execer, paperID string, keywordID int64) (bool, error) {
	res, err := db.ExecContext(ctx, `
        INSERT OR IGNORE INTO paper_keywords (paper_id, keyword_id)
        VALUES (?, ?)`,
		paperID, keywordID,
	)
	if err != nil {
		return false, storeErr("failed to link paper %s to keyword %d: %v", paperID, keywordID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("failed to read link result for %s: %v", paperID, err)
	}
	return affected > 0, nil
}

// PageResult reports what one page commit changed
type PageResult struct {
	// Inserted is the number of papers not seen before
	Inserted int
	// Linked is the number of (paper, keyword) pairs newly associated
	Linked int
}

// SavePage persists one page of papers and their keyword links in a single
// transaction, so a paper row is never visible without its link within the
// page's commit. A failure on one record is logged and does not abort the
// page; a failure to open or commit the transaction does.
func (s *Store) SavePage(ctx context.Context, keywordID int64, papers []arxiv.Paper) (PageResult, error) {
	var result PageResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, storeErr("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for i := range papers {
		paper := &papers[i]

		inserted, err := s.insertPaper(ctx, tx, paper)
		if err != nil {
			s.logger.ErrorWithFields("failed to store paper", map[string]interface{}{
				"arxiv_id": paper.ArxivID,
				"error":    err.Error(),
			})
			continue
		}
		if inserted {
			result.Inserted++
		}

		linked, err := s.linkPaperKeyword(ctx, tx, paper.ArxivID, keywordID)
		if err != nil {
			s.logger.ErrorWithFields("failed to link paper", map[string]interface{}{
				"arxiv_id":   paper.ArxivID,
				"keyword_id": keywordID,
				"error":      err.Error(),
			})
			continue
		}
		if linked {
			result.Linked++
		}
	}

	if err := tx.Commit(); err != nil {
		return PageResult{}, storeErr("failed to commit page: %v", err)
	}

	return result, nil
}

// Summary aggregates store contents for progress reporting
type Summary struct {
	Keywords   map[string]int  `json:"keywords"`
	Papers     PaperStats      `json:"papers"`
	Processing ProcessingStats `json:"processing"`
}

// PaperStats holds paper-level aggregate counts
type PaperStats struct {
	TotalUnique int `json:"total_unique"`
	Linked      int `json:"linked"`
}

// ProcessingStats holds processing-level aggregate counts
type ProcessingStats struct {
	TotalFound     int `json:"total_found"`
	TotalProcessed int `json:"total_processed"`
}

// GetSummary computes the aggregate summary without full scans of the
// paper table beyond the counts themselves
func (s *Store) GetSummary(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		Keywords: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM keywords GROUP BY status`)
	if err != nil {
		return nil, storeErr("failed to query keyword statuses: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storeErr("failed to scan keyword status: %v", err)
		}
		summary.Keywords[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to iterate keyword statuses: %v", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).
		Scan(&summary.Papers.TotalUnique); err != nil {
		return nil, storeErr("failed to count papers: %v", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT paper_id) FROM paper_keywords`).
		Scan(&summary.Papers.Linked); err != nil {
		return nil, storeErr("failed to count linked papers: %v", err)
	}

	var totalFound, totalProcessed sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
        SELECT SUM(total_results), SUM(processed_results)
        FROM keywords WHERE status != 'pending'`).
		Scan(&totalFound, &totalProcessed); err != nil {
		return nil, storeErr("failed to sum processing stats: %v", err)
	}
	summary.Processing.TotalFound = int(totalFound.Int64)
	summary.Processing.TotalProcessed = int(totalProcessed.Int64)

	return summary, nil
}

// formatTime renders a timestamp for storage, keeping empty strings for
// missing values
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// storeErr builds a typed store error
func storeErr(format string, args ...interface{}) error {
	return &errs.Error{
		Type:    errs.ErrorTypeStore,
		Message: fmt.Sprintf(format, args...),
	}
}
