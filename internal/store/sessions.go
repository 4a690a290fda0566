package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"sjsage522/bestmuadata/internal/model"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

const sessionColumns = `id, run_id, started_at, finished_at, status, categories_found,
	products_found, products_created, products_updated, errors`

// StartSession records a running crawl session
func (s *Store) StartSession(ctx context.Context, runID string) (model.CrawlSession, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO crawl_sessions (run_id, started_at, status) VALUES (?, ?, ?) RETURNING id`),
		runID, s.now(), model.SessionRunning,
	).Scan(&id)
	if err != nil {
		return model.CrawlSession{}, apperrors.NewPersistence("session", "failed to start session", err)
	}
	s.log.Info().Int64("session_id", id).Str("run_id", runID).Msg("crawl session started")
	return s.GetSession(ctx, id)
}

// FinishSession moves a session to a terminal status and copies the run
// counters. An unknown id is logged and ignored.
func (s *Store) FinishSession(ctx context.Context, id int64, status string, stats model.CrawlStats, errText string) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn().Int64("session_id", id).Msg("crawl session not found")
			return nil
		}
		return err
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE crawl_sessions SET
			finished_at = ?, status = ?, categories_found = ?, products_found = ?,
			products_created = ?, products_updated = ?, errors = ?
		WHERE id = ?`),
		s.now(), status, stats.CategoriesFound, stats.ProductsFound,
		stats.ProductsCreated, stats.ProductsUpdated, errText,
		id,
	)
	if err != nil {
		return apperrors.NewPersistence("session", "failed to finish session", err)
	}
	s.log.Info().Int64("session_id", id).Str("status", status).Msg("crawl session finished")
	return nil
}

// GetSession returns the session with id or ErrNotFound
func (s *Store) GetSession(ctx context.Context, id int64) (model.CrawlSession, error) {
	var sess model.CrawlSession
	err := sqlx.GetContext(ctx, s.db, &sess,
		s.db.Rebind(`SELECT `+sessionColumns+` FROM crawl_sessions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CrawlSession{}, ErrNotFound
	}
	if err != nil {
		return model.CrawlSession{}, apperrors.NewPersistence("session", "failed to load session", err)
	}
	return sess, nil
}

// RecentSessions returns up to limit sessions, newest first
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]model.CrawlSession, error) {
	if limit <= 0 {
		limit = 10
	}
	var sessions []model.CrawlSession
	err := sqlx.SelectContext(ctx, s.db, &sessions,
		s.db.Rebind(`SELECT `+sessionColumns+` FROM crawl_sessions ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, apperrors.NewPersistence("session", "failed to list sessions", err)
	}
	return sessions, nil
}

// CleanupSessions deletes sessions started more than days ago and returns
// the number removed.
func (s *Store) CleanupSessions(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM crawl_sessions WHERE started_at < ?`), cutoff)
	if err != nil {
		return 0, apperrors.NewPersistence("session", "failed to clean up sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewPersistence("session", "failed to count removed sessions", err)
	}
	s.log.Info().Int64("removed", n).Int("days", days).Msg("old crawl sessions removed")
	return n, nil
}

// DatabaseStats counts stored entities and product field coverage
func (s *Store) DatabaseStats(ctx context.Context) (model.DatabaseStats, error) {
	var stats model.DatabaseStats
	err := sqlx.GetContext(ctx, s.db, &stats, `
		SELECT
			(SELECT COUNT(*) FROM categories) AS categories,
			(SELECT COUNT(*) FROM brands) AS brands,
			(SELECT COUNT(*) FROM products) AS products,
			(SELECT COUNT(*) FROM crawl_sessions) AS crawl_sessions,
			(SELECT COUNT(*) FROM products WHERE image_url <> '') AS products_with_images,
			(SELECT COUNT(*) FROM products WHERE price IS NOT NULL) AS products_with_prices,
			(SELECT COUNT(*) FROM products WHERE rating IS NOT NULL) AS products_with_ratings`)
	if err != nil {
		return model.DatabaseStats{}, apperrors.NewPersistence("stats", "failed to collect database stats", err)
	}
	return stats, nil
}
