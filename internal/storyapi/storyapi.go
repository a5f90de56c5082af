package storyapi

import (
	"context"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
)

// LoginResult is the payload of a successful authentication.
type LoginResult struct {
	Token   string
	Message string
}

// Client is the typed wrapper over the story platform's REST API. It is
// stateless aside from the base URL; callers supply the session token.
type Client interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	Stories(ctx context.Context, token string, page, size int) ([]domain.Story, error)
	StoriesWithLocation(ctx context.Context, token string) ([]domain.Story, error)
	StoryByID(ctx context.Context, token, id string) (*domain.Story, error)
	Upload(ctx context.Context, token string, job domain.UploadJob) error
}
