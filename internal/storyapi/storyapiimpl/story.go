package storyapiimpl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
)

type storiesResponse struct {
	apiEnvelope
	ListStory []domain.Story `json:"listStory"`
}

type storyDetailResponse struct {
	apiEnvelope
	Story *domain.Story `json:"story"`
}

func (a *ApiImpl) Stories(ctx context.Context, token string, page, size int) ([]domain.Story, error) {
	if page < 1 || size < 1 {
		return nil, apperrors.Validation(fmt.Sprintf("invalid page parameters: page=%d size=%d", page, size))
	}

	path := fmt.Sprintf("/stories?page=%d&size=%d", page, size)
	req, err := a.newJSONRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", bearer(token))

	var out storiesResponse
	if err := a.doJSON(req, &out, &out.apiEnvelope); err != nil {
		return nil, err
	}

	a.logger.Debug("Fetched story page", "page", page, "size", size, "count", len(out.ListStory))
	return out.ListStory, nil
}

func (a *ApiImpl) StoriesWithLocation(ctx context.Context, token string) ([]domain.Story, error) {
	req, err := a.newJSONRequest(ctx, http.MethodGet, "/stories?location=1", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", bearer(token))
	req.Header.Set("Cache-Control", "no-cache")

	var out storiesResponse
	if err := a.doJSON(req, &out, &out.apiEnvelope); err != nil {
		return nil, err
	}
	return out.ListStory, nil
}

func (a *ApiImpl) StoryByID(ctx context.Context, token, id string) (*domain.Story, error) {
	if id == "" {
		return nil, apperrors.Validation("story id must not be empty")
	}

	req, err := a.newJSONRequest(ctx, http.MethodGet, "/stories/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", bearer(token))

	var out storyDetailResponse
	if err := a.doJSON(req, &out, &out.apiEnvelope); err != nil {
		return nil, err
	}
	if out.Story == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "story not found")
	}
	return out.Story, nil
}
