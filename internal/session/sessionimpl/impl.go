package sessionimpl

import (
	"context"
	"strings"

	"github.com/orgball2608/story-sync-telegram-bot/internal/session"
	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	"github.com/orgball2608/story-sync-telegram-bot/internal/tokenstore"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

const minPasswordLength = 8

type SessionImpl struct {
	API    storyapi.Client
	Tokens tokenstore.Store
	Logger logger.Logger
}

type Opts struct {
	fx.In

	API    storyapi.Client
	Tokens tokenstore.Store
	Logger logger.Logger
}

func New(opts Opts) *SessionImpl {
	return &SessionImpl{
		API:    opts.API,
		Tokens: opts.Tokens,
		Logger: opts.Logger.WithComponent("Session"),
	}
}

var _ session.Controller = (*SessionImpl)(nil)

func (s *SessionImpl) Login(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	result, err := s.API.Login(ctx, email, password)
	if err != nil {
		s.Logger.Warn("Login rejected", "error", err)
		return err
	}

	if err := s.Tokens.Save(ctx, result.Token); err != nil {
		s.Logger.Error("Failed to persist session token", "error", err)
		return err
	}

	s.Logger.Info("Logged in")
	return nil
}

func (s *SessionImpl) Register(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation("name must not be empty")
	}
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	message, err := s.API.Register(ctx, name, email, password)
	if err != nil {
		s.Logger.Warn("Registration rejected", "error", err)
		return err
	}

	s.Logger.Info("Registered", "message", message)
	return nil
}

// Logout clears the persisted token. In-flight loads of the old session are
// discarded by the collection controller's epoch guard once it is invalidated.
func (s *SessionImpl) Logout(ctx context.Context) error {
	if err := s.Tokens.Clear(ctx); err != nil {
		s.Logger.Error("Failed to clear session token", "error", err)
		return err
	}
	s.Logger.Info("Logged out")
	return nil
}

func (s *SessionImpl) IsLoggedIn(ctx context.Context) bool {
	token, _ := s.Tokens.Token(ctx)
	return token != ""
}

// Watch maps token emissions to login state, collapsing consecutive
// duplicates so subscribers only see transitions.
func (s *SessionImpl) Watch(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	in := s.Tokens.Watch(ctx)

	go func() {
		defer close(out)
		var last *bool
		for token := range in {
			loggedIn := token != ""
			if last != nil && *last == loggedIn {
				continue
			}
			v := loggedIn
			last = &v
			select {
			case out <- loggedIn:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Validation("email must not be empty")
	}
	if password == "" {
		return apperrors.Validation("password must not be empty")
	}
	if len(password) < minPasswordLength {
		return apperrors.Validation("password must be at least 8 characters")
	}
	return nil
}
