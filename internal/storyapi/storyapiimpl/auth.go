package storyapiimpl

import (
	"context"
	"net/http"

	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
)

type loginResponse struct {
	apiEnvelope
	LoginResult *struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
		Token  string `json:"token"`
	} `json:"loginResult"`
}

func (a *ApiImpl) Login(ctx context.Context, email, password string) (*storyapi.LoginResult, error) {
	req, err := a.newJSONRequest(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var out loginResponse
	if err := a.doJSON(req, &out, &out.apiEnvelope); err != nil {
		a.logger.Warn("Login failed", "error", err)
		return nil, err
	}

	// A 2xx with error:false but no usable token still counts as invalid
	// credentials, not a success.
	if out.LoginResult == nil || out.LoginResult.Token == "" {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	return &storyapi.LoginResult{
		Token:   out.LoginResult.Token,
		Message: out.Message,
	}, nil
}

func (a *ApiImpl) Register(ctx context.Context, name, email, password string) (string, error) {
	req, err := a.newJSONRequest(ctx, http.MethodPost, "/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var out apiEnvelope
	if err := a.doJSON(req, nil, &out); err != nil {
		a.logger.Warn("Register failed", "error", err)
		return "", err
	}
	return out.Message, nil
}
