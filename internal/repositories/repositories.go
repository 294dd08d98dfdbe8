// package repositories provides [models.PreferenceStore] implementations and a factory selecting one from config.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

var (
	_ models.PreferenceStore = (*SQLitePreferenceStore)(nil)
	_ models.PreferenceStore = (*PostgresPreferenceStore)(nil)
	_ models.PreferenceStore = (*MongoPreferenceStore)(nil)
	_ models.PreferenceStore = (*MemoryPreferenceStore)(nil)
)

// nextSequence increments and returns the next sequence number for the given table inside tx.
//
// Sequence numbers give records a human-readable creation order and are not exposed in CLI output.
func nextSequence(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

func validList(l models.List) error {
	if !l.Valid() {
		return fmt.Errorf("%w: list %q", shared.ErrInvalidArgument, l)
	}
	return nil
}

// Open builds the store selected by cfg.Store.Driver.
//
// The returned close function releases the underlying connection and is never nil on success.
func Open(ctx context.Context, cfg *shared.Config, logger *log.Logger) (models.PreferenceStore, func() error, error) {
	logger = shared.WithLogger(logger, "store", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case "sqlite":
		db, err := shared.NewDatabase(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Debug("opened sqlite store", "path", cfg.Database.Path)
		return NewSQLitePreferenceStore(db), db.Close, nil
	case "postgres":
		store, err := OpenPostgres(ctx, cfg.Store.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("opened postgres store")
		return store, store.Close, nil
	case "mongo":
		store, err := OpenMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("opened mongo store", "database", cfg.Store.MongoDatabase)
		return store, func() error { return store.Close(context.Background()) }, nil
	case "memory":
		logger.Warn("using in-memory store, preferences are lost on exit")
		return NewMemoryPreferenceStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Store.Driver)
	}
}
