package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
)

// FileStore persists the token as a single file, written atomically via a
// temp file and rename.
type FileStore struct {
	path   string
	logger logger.Logger

	mu       sync.Mutex
	watchers map[chan string]struct{}
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string, log logger.Logger) *FileStore {
	return &FileStore{
		path:     path,
		logger:   log.WithComponent("TokenStore"),
		watchers: make(map[chan string]struct{}),
	}
}

func (s *FileStore) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read session token, treating as absent", "path", s.path, "error", err)
		}
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Save(_ context.Context, token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotPersist, err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotPersist, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrCannotPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrCannotPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrCannotPersist, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrCannotPersist, err)
	}

	s.broadcast(token)
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	s.broadcast("")
	return nil
}

func (s *FileStore) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, 8)

	// Register and enqueue the current value under the same lock, so a
	// concurrent Save cannot slip its broadcast in before the initial value.
	s.mu.Lock()
	current, _ := s.Token(ctx)
	s.watchers[ch] = struct{}{}
	ch <- current
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (s *FileStore) broadcast(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- token:
		default:
			s.logger.Warn("Dropping token update for slow watcher")
		}
	}
}
