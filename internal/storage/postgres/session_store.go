package postgres

import (
	"context"
	"fmt"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// SessionStore implements scrape.SessionStore on Postgres. Sessions are
// append-only; no update path exists.
type SessionStore struct {
	pool dbPool
}

// NewSessionStore connects a pool and applies the schema.
func NewSessionStore(ctx context.Context, cfg Config) (*SessionStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &SessionStore{pool: pool}, nil
}

// NewSessionStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewSessionStoreWithPool(pool dbPool) (*SessionStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &SessionStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *SessionStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Record appends one session row and returns its ID.
func (s *SessionStore) Record(ctx context.Context, session scrape.Session) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO scrape_sessions (
	source_website, scrape_start, scrape_end, listings_found, listings_new,
	listings_duplicates, errors, status, error_message
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		session.SourceWebsite,
		session.ScrapeStart,
		session.ScrapeEnd,
		session.ListingsFound,
		session.ListingsNew,
		session.ListingsDuplicates,
		session.Errors,
		string(session.Status),
		session.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record session: %w", err)
	}
	return id, nil
}

// History returns the most recent sessions, newest first, optionally
// restricted to one source.
func (s *SessionStore) History(ctx context.Context, source string, limit int) ([]scrape.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT id, source_website, scrape_start, scrape_end, listings_found,
	listings_new, listings_duplicates, errors, status, error_message
FROM scrape_sessions`
	var args []any
	if source != "" {
		query += " WHERE source_website = $1"
		args = append(args, source)
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY scrape_start DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	defer rows.Close()

	var sessions []scrape.Session
	for rows.Next() {
		var sess scrape.Session
		var status string
		if err := rows.Scan(
			&sess.ID, &sess.SourceWebsite, &sess.ScrapeStart, &sess.ScrapeEnd,
			&sess.ListingsFound, &sess.ListingsNew, &sess.ListingsDuplicates,
			&sess.Errors, &status, &sess.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Status = scrape.SessionStatus(status)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
