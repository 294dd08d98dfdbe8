package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// SQLitePreferenceStore implements [models.PreferenceStore] on the embedded migration schema.
//
// Each record is a row in preferences; set members are rows in preference_movies keyed by (user_id, list, movie_id).
type SQLitePreferenceStore struct {
	db *sql.DB
}

// NewSQLitePreferenceStore creates a store on a migrated database connection
func NewSQLitePreferenceStore(db *sql.DB) *SQLitePreferenceStore {
	return &SQLitePreferenceStore{db: db}
}

// Get loads the record for uid with both sets.
func (r *SQLitePreferenceStore) Get(ctx context.Context, uid string) (*models.Preferences, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM preferences WHERE user_id = ?)", uid).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT list, movie_id FROM preference_movies WHERE user_id = ?", uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query preference movies: %w", err)
	}
	defer rows.Close()

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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return prefs, nil
}

// Create inserts an empty record for uid unless one already exists.
func (r *SQLitePreferenceStore) Create(ctx context.Context, uid string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM preferences WHERE user_id = ?)", uid).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query preferences: %w", err)
	}
	if exists {
		return nil
	}

	sequence, err := nextSequence(ctx, tx, "preferences")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT OR IGNORE INTO preferences (id, sequence, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, shared.GenerateID(), sequence, uid, now, now); err != nil {
		return fmt.Errorf("failed to insert preferences: %w", err)
	}

	return tx.Commit()
}

// AddMovie inserts id into the list set. Adding a present member is a no-op.
func (r *SQLitePreferenceStore) AddMovie(ctx context.Context, uid string, l models.List, id int) error {
	return r.mutate(ctx, uid, l,
		"INSERT OR IGNORE INTO preference_movies (user_id, list, movie_id, created_at) VALUES (?, ?, ?, ?)",
		uid, string(l), id, time.Now().UTC())
}

// RemoveMovie deletes id from the list set. Removing an absent member is a no-op.
func (r *SQLitePreferenceStore) RemoveMovie(ctx context.Context, uid string, l models.List, id int) error {
	return r.mutate(ctx, uid, l,
		"DELETE FROM preference_movies WHERE user_id = ? AND list = ? AND movie_id = ?",
		uid, string(l), id)
}

// mutate touches the record (failing if absent) and runs stmt in the same transaction.
func (r *SQLitePreferenceStore) mutate(ctx context.Context, uid string, l models.List, stmt string, args ...any) error {
	if err := validList(l); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "UPDATE preferences SET updated_at = ? WHERE user_id = ?", time.Now().UTC(), uid)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", l.Label(), err)
	}

	return tx.Commit()
}

// Count returns the number of stored preference records.
func (r *SQLitePreferenceStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM preferences").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count preferences: %w", err)
	}
	return n, nil
}
