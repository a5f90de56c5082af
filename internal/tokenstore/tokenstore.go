package tokenstore

import (
	"context"
	"errors"
)

var ErrCannotPersist = errors.New("error persisting session token")

// Store holds the single opaque session token. An empty string means no
// session. Only the session controller writes; everything else observes.
type Store interface {
	// Token returns the current token. Storage read failures are treated as
	// "no token" and never surface to the caller.
	Token(ctx context.Context) (string, error)
	// Save persists the token durably. The store state is unchanged on error.
	Save(ctx context.Context, token string) error
	// Clear removes the persisted token. Clearing an absent token is a no-op.
	Clear(ctx context.Context) error
	// Watch emits the current token and then every change until ctx is done.
	Watch(ctx context.Context) <-chan string
}
