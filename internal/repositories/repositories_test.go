package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// testPreferenceStore runs the behaviour every store must share.
func testPreferenceStore(t *testing.T, newStore func(t *testing.T) models.PreferenceStore) {
	ctx := context.Background()

	t.Run("Get missing record", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, shared.GenerateID())
		if !errors.Is(err, shared.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("Create yields empty sets", func(t *testing.T) {
		store := newStore(t)
		uid := shared.GenerateID()

		if err := store.Create(ctx, uid); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		prefs, err := store.Get(ctx, uid)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if prefs.UserID != uid {
			t.Errorf("expected user %s, got %s", uid, prefs.UserID)
		}
		if prefs.Watched.Len() != 0 || prefs.Liked.Len() != 0 {
			t.Errorf("expected empty sets, got watched=%v liked=%v", prefs.Watched.IDs(), prefs.Liked.IDs())
		}
	})

	t.Run("Create keeps existing record", func(t *testing.T) {
		store := newStore(t)
		uid := shared.GenerateID()

		if err := store.Create(ctx, uid); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if err := store.AddMovie(ctx, uid, models.Watched, 10); err != nil {
			t.Fatalf("failed to add movie: %v", err)
		}
		if err := store.Create(ctx, uid); err != nil {
			t.Fatalf("second create should succeed: %v", err)
		}

		prefs, err := store.Get(ctx, uid)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if !prefs.Watched.Has(10) {
			t.Error("create must not reset an existing record")
		}
	})

	t.Run("AddMovie and RemoveMovie", func(t *testing.T) {
		store := newStore(t)
		uid := shared.GenerateID()

		if err := store.Create(ctx, uid); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		for _, id := range []int{603, 27205, 603} {
			if err := store.AddMovie(ctx, uid, models.Watched, id); err != nil {
				t.Fatalf("failed to add %d: %v", id, err)
			}
		}
		if err := store.AddMovie(ctx, uid, models.Liked, 603); err != nil {
			t.Fatalf("failed to like: %v", err)
		}

		prefs, err := store.Get(ctx, uid)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got := prefs.Watched.IDs(); !slices.Equal(got, []int{603, 27205}) {
			t.Errorf("expected watched [603 27205], got %v", got)
		}
		if got := prefs.Liked.IDs(); !slices.Equal(got, []int{603}) {
			t.Errorf("expected liked [603], got %v", got)
		}

		if err := store.RemoveMovie(ctx, uid, models.Watched, 603); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}
		if err := store.RemoveMovie(ctx, uid, models.Watched, 999); err != nil {
			t.Fatalf("removing an absent member should succeed: %v", err)
		}

		prefs, err = store.Get(ctx, uid)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got := prefs.Watched.IDs(); !slices.Equal(got, []int{27205}) {
			t.Errorf("expected watched [27205], got %v", got)
		}
		if !prefs.Liked.Has(603) {
			t.Error("removing from watched must not touch liked")
		}
	})

	t.Run("mutations require a record", func(t *testing.T) {
		store := newStore(t)
		uid := shared.GenerateID()

		if err := store.AddMovie(ctx, uid, models.Liked, 1); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("AddMovie: expected ErrRecordNotFound, got %v", err)
		}
		if err := store.RemoveMovie(ctx, uid, models.Liked, 1); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("RemoveMovie: expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("unknown list", func(t *testing.T) {
		store := newStore(t)
		uid := shared.GenerateID()
		if err := store.Create(ctx, uid); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if err := store.AddMovie(ctx, uid, models.List("favorites"), 1); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSQLitePreferenceStore(t *testing.T) {
	testPreferenceStore(t, func(t *testing.T) models.PreferenceStore {
		db := setupTestDB(t)
		t.Cleanup(func() { db.Close() })
		return NewSQLitePreferenceStore(db)
	})

	t.Run("Count uses sequence table", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewSQLitePreferenceStore(db)
		ctx := context.Background()
		for _, uid := range []string{"a", "b", "a"} {
			if err := store.Create(ctx, uid); err != nil {
				t.Fatalf("failed to create %s: %v", uid, err)
			}
		}

		n, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 records, got %d", n)
		}

		var seq int
		if err := db.QueryRow("SELECT value FROM preferences_sequence WHERE id = 1").Scan(&seq); err != nil {
			t.Fatalf("failed to read sequence: %v", err)
		}
		if seq != 2 {
			t.Errorf("sequence should only advance on insert, got %d", seq)
		}
	})
}

func TestMemoryPreferenceStore(t *testing.T) {
	testPreferenceStore(t, func(t *testing.T) models.PreferenceStore {
		return NewMemoryPreferenceStore()
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		store := NewMemoryPreferenceStore()
		ctx := context.Background()
		if err := store.Create(ctx, "u"); err != nil {
			t.Fatalf("failed to create: %v", err)
		}

		prefs, _ := store.Get(ctx, "u")
		prefs.Watched.Add(5)

		again, _ := store.Get(ctx, "u")
		if again.Watched.Has(5) {
			t.Error("mutating a fetched record leaked into the store")
		}
	})
}

func TestPostgresPreferenceStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := OpenPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	defer store.Close()

	testPreferenceStore(t, func(t *testing.T) models.PreferenceStore { return store })
}

func TestMongoPreferenceStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	store, err := OpenMongo(context.Background(), uri, "cinematch_test")
	if err != nil {
		t.Fatalf("failed to open mongo: %v", err)
	}
	defer store.Close(context.Background())

	testPreferenceStore(t, func(t *testing.T) models.PreferenceStore { return store })
}
