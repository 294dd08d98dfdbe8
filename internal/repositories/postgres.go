package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// PostgresPreferenceStore implements [models.PreferenceStore] on PostgreSQL.
type PostgresPreferenceStore struct {
	db *sql.DB
}

// OpenPostgres connects, pings and creates the schema if needed.
func OpenPostgres(ctx context.Context, connStr string) (*PostgresPreferenceStore, error) {
	if connStr == "" {
		return nil, fmt.Errorf("%w: postgres_url is empty", shared.ErrInvalidConfig)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	s := &PostgresPreferenceStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *PostgresPreferenceStore) Close() error {
	return s.db.Close()
}

func (s *PostgresPreferenceStore) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS preferences (id UUID PRIMARY KEY, sequence BIGSERIAL UNIQUE, user_id TEXT UNIQUE NOT NULL, created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS preference_movies (user_id TEXT NOT NULL REFERENCES preferences(user_id) ON DELETE CASCADE, list TEXT NOT NULL CHECK(list IN ('watchedMovies','likedMovies')), movie_id BIGINT NOT NULL, created_at TIMESTAMPTZ NOT NULL, PRIMARY KEY (user_id, list, movie_id));",
		"CREATE INDEX IF NOT EXISTS idx_preference_movies_movie ON preference_movies(movie_id);",
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Get loads the record for uid with both sets.
func (s *PostgresPreferenceStore) Get(ctx context.Context, uid string) (*models.Preferences, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM preferences WHERE user_id=$1);", uid).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT list, movie_id FROM preference_movies WHERE user_id=$1;", uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query preference movies: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	prefs := models.NewPreferences(uid)
	for rows.Next() {
		var (
			list string
			id   int
		)
		if err := rows.Scan(&list, &id); err != nil {
			return nil, fmt.Errorf("failed to scan preference movie: %w", err)
		}
		if set := prefs.Set(models.List(list)); set != nil {
			set.Add(id)
		}
	}
	return prefs, rows.Err()
}

// Create inserts an empty record for uid unless one already exists.
func (s *PostgresPreferenceStore) Create(ctx context.Context, uid string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO preferences(id, user_id, created_at, updated_at) VALUES($1, $2, $3, $3) ON CONFLICT (user_id) DO NOTHING;",
		shared.GenerateID(), uid, now)
	if err != nil {
		return fmt.Errorf("failed to insert preferences: %w", err)
	}
	return nil
}

func (s *PostgresPreferenceStore) AddMovie(ctx context.Context, uid string, l models.List, id int) error {
	return s.mutate(ctx, uid, l,
		"INSERT INTO preference_movies(user_id, list, movie_id, created_at) VALUES($1, $2, $3, $4) ON CONFLICT DO NOTHING;",
		uid, string(l), id, time.Now().UTC())
}

func (s *PostgresPreferenceStore) RemoveMovie(ctx context.Context, uid string, l models.List, id int) error {
	return s.mutate(ctx, uid, l,
		"DELETE FROM preference_movies WHERE user_id=$1 AND list=$2 AND movie_id=$3;",
		uid, string(l), id)
}

func (s *PostgresPreferenceStore) mutate(ctx context.Context, uid string, l models.List, stmt string, args ...any) error {
	if err := validList(l); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, "UPDATE preferences SET updated_at=$1 WHERE user_id=$2;", time.Now().UTC(), uid)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	} else if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", l.Label(), err)
	}
	return tx.Commit()
}
