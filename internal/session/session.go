package session

import "context"

// Controller owns the token lifecycle. Login persists the token on success
// and leaves everything unchanged on failure; Logout clears it. Login state
// is derived purely from the token store, so watchers see every transition.
type Controller interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, name, email, password string) error
	Logout(ctx context.Context) error
	IsLoggedIn(ctx context.Context) bool
	Watch(ctx context.Context) <-chan bool
}
