package tokenstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orgball2608/story-sync-telegram-bot/internal/tokenstore"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
)

func newStore(t *testing.T) (*tokenstore.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session", "token")
	return tokenstore.NewFileStore(path, logger.New(logger.Opts{})), path
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	token, err := store.Token(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		t.Fatalf("expected no token before save, got %q", token)
	}

	if err := store.Save(ctx, "T1"); err != nil {
		t.Fatal(err)
	}

	token, err = store.Token(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if token != "T1" {
		t.Fatalf("expected T1, got %q", token)
	}
}

func TestFileStore_FreshReadAfterSave(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "T2"); err != nil {
		t.Fatal(err)
	}

	// A brand-new store over the same path must see the persisted value.
	fresh := tokenstore.NewFileStore(path, logger.New(logger.Opts{}))
	token, err := fresh.Token(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if token != "T2" {
		t.Fatalf("expected T2 from fresh store, got %q", token)
	}
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clearing an absent token should succeed, got %v", err)
	}

	if err := store.Save(ctx, "T3"); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear should succeed, got %v", err)
	}

	token, err := store.Token(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		t.Fatalf("expected no token after clear, got %q", token)
	}
}

func TestFileStore_ReadFailureTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")

	// A directory at the token path makes every read fail.
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	store := tokenstore.NewFileStore(path, logger.New(logger.Opts{}))
	token, err := store.Token(context.Background())
	if err != nil {
		t.Fatalf("read failures must not propagate, got %v", err)
	}
	if token != "" {
		t.Fatalf("expected absent token, got %q", token)
	}
}

func TestFileStore_WatchEmitsChanges(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := store.Watch(ctx)

	if got := recv(t, ch); got != "" {
		t.Fatalf("expected initial absent emission, got %q", got)
	}

	if err := store.Save(ctx, "T4"); err != nil {
		t.Fatal(err)
	}
	if got := recv(t, ch); got != "T4" {
		t.Fatalf("expected T4 emission, got %q", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got := recv(t, ch); got != "" {
		t.Fatalf("expected absent emission after clear, got %q", got)
	}
}

func TestFileStore_SaveFailureIsClassified(t *testing.T) {
	dir := t.TempDir()

	// A file where the parent directory should be makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := tokenstore.NewFileStore(filepath.Join(blocker, "token"), logger.New(logger.Opts{}))
	err := store.Save(context.Background(), "T5")
	if !errors.Is(err, tokenstore.ErrCannotPersist) {
		t.Fatalf("expected ErrCannotPersist, got %v", err)
	}
}

func TestFileStore_WatchNeverEmitsStaleAfterNewer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A Save racing with Watch must not deliver the new token before the
	// initial value; the subscriber would end on the stale one.
	for i := 0; i < 50; i++ {
		store, _ := newStore(t)
		if err := store.Save(ctx, "old"); err != nil {
			t.Fatal(err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = store.Save(ctx, "new")
		}()

		ch := store.Watch(ctx)
		<-done

		last := recv(t, ch)
		for {
			select {
			case v := <-ch:
				last = v
				continue
			default:
			}
			break
		}
		if last != "new" {
			t.Fatalf("iteration %d: last emission %q, want the newest token", i, last)
		}
	}
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for token emission")
		return ""
	}
}
