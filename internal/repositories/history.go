package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SearchEntry is one recorded catalog search.
type SearchEntry struct {
	ID         string
	Query      string
	Results    int
	SearchedAt time.Time
}

// HistoryRepository persists search history rows.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given
// database connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts a search entry. Blank queries are ignored rather than
// recorded, since the empty search is the default discovery listing.
func (r *HistoryRepository) Record(id, query string, results int) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	stmt := `
		INSERT INTO search_history (id, query, results, searched_at) VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.Exec(stmt, id, query, results, time.Now()); err != nil {
		return fmt.Errorf("failed to insert search entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *HistoryRepository) Recent(limit int) ([]SearchEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	stmt := `
		SELECT id, query, results, searched_at
		FROM search_history
		ORDER BY searched_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var entries []SearchEntry
	for rows.Next() {
		var entry SearchEntry
		if err := rows.Scan(&entry.ID, &entry.Query, &entry.Results, &entry.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear deletes all recorded searches and returns how many were removed.
func (r *HistoryRepository) Clear() (int, error) {
	result, err := r.db.Exec(`DELETE FROM search_history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
