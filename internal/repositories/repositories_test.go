package repositories

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
)

// setupTestDB creates a file-backed SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func fetchedOutcome(title, path string) models.ItemOutcome {
	f := models.Fetched(path)
	return models.ItemOutcome{
		Item:  models.CatalogItem{Title: title, Contributor: "Artist"},
		Match: models.Located("https://www.youtube.com/watch?v=" + title),
		Fetch: &f,
	}
}

func missedOutcome(title string) models.ItemOutcome {
	return models.ItemOutcome{Item: models.CatalogItem{Title: title, Contributor: "Artist"}, Match: models.NotFound()}
}

func TestNextSequence(t *testing.T) {
	t.Run("Increments", func(t *testing.T) {
		db := setupTestDB(t)

		for want := 1; want <= 3; want++ {
			got, err := NextSequence(db, "downloads")
			if err != nil {
				t.Fatalf("NextSequence() error = %v", err)
			}
			if got != want {
				t.Errorf("NextSequence() = %d, want %d", got, want)
			}
		}
	})

	t.Run("UnknownSequence", func(t *testing.T) {
		db := setupTestDB(t)

		if _, err := NextSequence(db, "missing"); err == nil {
			t.Fatal("expected error for unknown sequence")
		}
	})
}

func TestDownloadRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		rec := models.NewDownloadRecord("batch-1", "https://open.spotify.com/playlist/abc", fetchedOutcome("One", "downloads/One.mp3"))
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if rec.ID() == "" {
			t.Error("record ID should be set after creation")
		}
		if rec.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", rec.Sequence())
		}
	})

	t.Run("CreateValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		rec := models.NewDownloadRecord("", "url", fetchedOutcome("One", "x.mp3"))
		if err := repo.Create(rec); err == nil {
			t.Fatal("expected validation error for missing batch id")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		rec := models.NewDownloadRecord("batch-1", "url", missedOutcome("Gone"))
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}

		if got.Title() != "Gone" {
			t.Errorf("expected title Gone, got %s", got.Title())
		}
		if got.Status() != models.StatusNoMatch {
			t.Errorf("expected status %s, got %s", models.StatusNoMatch, got.Status())
		}
		if got.CreatedAt().IsZero() {
			t.Error("created_at should round-trip")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		_, err := repo.Get("nope")
		if !errors.Is(err, shared.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		outcomes := []models.ItemOutcome{fetchedOutcome("A", "a.mp3"), missedOutcome("B"), fetchedOutcome("C", "c.mp3")}
		for _, o := range outcomes {
			if err := repo.Create(models.NewDownloadRecord("batch-1", "url", o)); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}
		if err := repo.Create(models.NewDownloadRecord("batch-2", "url", fetchedOutcome("D", "d.mp3"))); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		t.Run("All", func(t *testing.T) {
			records, err := repo.List(map[string]any{})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(records) != 4 {
				t.Fatalf("expected 4 records, got %d", len(records))
			}
			if records[0].Title() != "D" {
				t.Errorf("expected newest first, got %s", records[0].Title())
			}
		})

		t.Run("ByBatch", func(t *testing.T) {
			records, err := repo.List(map[string]any{"batch_id": "batch-1"})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(records) != 3 {
				t.Errorf("expected 3 records, got %d", len(records))
			}
		})

		t.Run("ByStatus", func(t *testing.T) {
			records, err := repo.List(map[string]any{"status": "no_match"})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(records) != 1 || records[0].Title() != "B" {
				t.Errorf("expected only B, got %d records", len(records))
			}
		})

		t.Run("Limit", func(t *testing.T) {
			records, err := repo.List(map[string]any{"limit": 2})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(records) != 2 {
				t.Errorf("expected 2 records, got %d", len(records))
			}
		})
	})

	t.Run("Batches", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		for _, o := range []models.ItemOutcome{fetchedOutcome("A", "a.mp3"), missedOutcome("B")} {
			if err := repo.Create(models.NewDownloadRecord("batch-1", "first", o)); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}
		if err := repo.Create(models.NewDownloadRecord("batch-2", "second", fetchedOutcome("C", "c.mp3"))); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		summaries, err := repo.Batches(0)
		if err != nil {
			t.Fatalf("failed to summarize: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("expected 2 batches, got %d", len(summaries))
		}

		if summaries[0].BatchID != "batch-2" {
			t.Errorf("expected newest batch first, got %s", summaries[0].BatchID)
		}

		first := summaries[1]
		if first.SourceURL != "first" || first.Fetched != 1 || first.NoMatch != 1 || first.Total() != 2 {
			t.Errorf("unexpected summary %+v", first)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDownloadRepository(db)

		for _, batch := range []string{"batch-1", "batch-1", "batch-2"} {
			if err := repo.Create(models.NewDownloadRecord(batch, "url", missedOutcome("X"))); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		n, err := repo.Clear("batch-1")
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows removed, got %d", n)
		}

		n, err = repo.Clear("")
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 row removed, got %d", n)
		}
	})
}

func TestHistoryAdapter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDownloadRepository(db)
	adapter := NewHistoryAdapter(repo)

	f := models.FetchOutcome{ErrorDetail: "extraction failed: HTTP 403"}
	failed := models.ItemOutcome{
		Item:  models.CatalogItem{Title: "Blocked", Contributor: "Someone"},
		Match: models.Located("https://youtu.be/xyz"),
		Fetch: &f,
	}

	if err := adapter.Record("batch-9", "https://open.spotify.com/track/1", failed); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	records, err := repo.List(map[string]any{"batch_id": "batch-9"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Status() != models.StatusFailed {
		t.Errorf("expected failed status, got %s", rec.Status())
	}
	if rec.ErrorDetail() != "extraction failed: HTTP 403" {
		t.Errorf("unexpected error detail %q", rec.ErrorDetail())
	}
	if rec.Address() != "https://youtu.be/xyz" {
		t.Errorf("unexpected address %q", rec.Address())
	}
}
