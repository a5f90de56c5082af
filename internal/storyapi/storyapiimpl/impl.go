package storyapiimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/config"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

type ApiImpl struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) *ApiImpl {
	timeout := time.Duration(opts.Config.StoryAPI.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ApiImpl{
		baseURL: strings.TrimRight(opts.Config.StoryAPI.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  opts.Logger.WithComponent("StoryAPI"),
	}
}

// NewWithBaseURL is the plain constructor used by tests and tooling.
func NewWithBaseURL(baseURL string, log logger.Logger) *ApiImpl {
	return &ApiImpl{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  log.WithComponent("StoryAPI"),
	}
}

var _ storyapi.Client = (*ApiImpl)(nil)

// apiEnvelope is the common part of every response body.
type apiEnvelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func bearer(token string) string {
	return "Bearer " + token
}

// doJSON executes the request and decodes the body into out, mapping
// failures onto the error taxonomy. A response counts as successful only
// when the HTTP status is 2xx AND the body's error flag is false.
func (a *ApiImpl) doJSON(req *http.Request, out interface{}, envelope *apiEnvelope) error {
	resp, err := a.http.Do(req)
	if err != nil {
		return apperrors.Transport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Transport(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Unauthorized("session expired, please log in again")
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.Wrap(apperrors.ErrNotFound, "story not found")
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, envelope); err != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return apperrors.Decode(err)
			}
			return apperrors.Application(fmt.Sprintf("request failed with status %d", resp.StatusCode))
		}
	}

	if envelope.Error {
		return apperrors.Application(envelope.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Application(fmt.Sprintf("request failed with status %d", resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return apperrors.Decode(err)
		}
	}
	return nil
}

func (a *ApiImpl) newJSONRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
