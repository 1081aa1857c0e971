package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"

	"trivia-quiz/internal/storage"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

type snapshot struct {
	CurrentIndex int            `json:"currentIndex"`
	Answers      map[int]string `json:"answers"`
	TimeLeft     int            `json:"timeLeft"`
}

func TestSQLiteStoreSetGetRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	want := snapshot{CurrentIndex: 2, Answers: map[int]string{0: "A", 1: "B"}, TimeLeft: 250}
	if err := store.Set(ctx, storage.SessionKey, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got snapshot
	found, err := store.Get(ctx, storage.SessionKey, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatalf("expected key to be found")
	}
	if got.CurrentIndex != 2 || got.TimeLeft != 250 || got.Answers[0] != "A" || got.Answers[1] != "B" {
		t.Fatalf("unexpected round trip value: %+v", got)
	}
}

func TestSQLiteStoreLastWriteWins(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for idx := 0; idx < 3; idx++ {
		if err := store.Set(ctx, "counter", idx); err != nil {
			t.Fatalf("Set #%d failed: %v", idx, err)
		}
	}

	var got int
	if _, err := store.Get(ctx, "counter", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected last write 2, got %d", got)
	}
}

func TestSQLiteStoreRemoveAndMissing(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, "never-there"); err != nil {
		t.Fatalf("Remove of missing key failed: %v", err)
	}

	var got string
	found, err := store.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Fatalf("expected removed key to be absent, got %q", got)
	}
}

func TestSQLiteStoreCorruptValue(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at_unix) VALUES ('broken', 'not-json', 1)`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var got snapshot
	found, err := store.Get(ctx, "broken", &got)
	if !found {
		t.Fatalf("expected corrupt key to be reported as found")
	}
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestSQLiteStoreGetPropagatesDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT value FROM kv").WithArgs("k").WillReturnError(errors.New("disk I/O error"))

	store, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		t.Fatalf("NewSQLiteStoreFromDB failed: %v", err)
	}

	var got string
	found, err := store.Get(context.Background(), "k", &got)
	if err == nil {
		t.Fatalf("expected driver error")
	}
	if found {
		t.Fatalf("expected found=false on driver error")
	}
	if errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("driver error must not be classified as corrupt: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
