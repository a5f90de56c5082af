package storyapiimpl

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
)

// Upload publishes a story as multipart/form-data: one binary photo part,
// one description text part, and optional lat/lon text parts.
func (a *ApiImpl) Upload(ctx context.Context, token string, job domain.UploadJob) error {
	if job.Description == "" {
		return apperrors.Validation("description must not be empty")
	}
	if len(job.Image) == 0 {
		return apperrors.Validation("a photo is required")
	}

	filename := job.Filename
	if filename == "" {
		filename = "photo.jpg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(job.Image); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := w.WriteField("description", job.Description); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if job.Lat != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*job.Lat, 'f', -1, 64)); err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if job.Lon != nil {
		if err := w.WriteField("lon", strconv.FormatFloat(*job.Lon, 'f', -1, 64)); err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/stories", &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", bearer(token))
	req.Header.Set("Content-Type", w.FormDataContentType())

	// A 2xx status alone is not a success; the body's error flag decides too.
	var out apiEnvelope
	if err := a.doJSON(req, nil, &out); err != nil {
		return err
	}

	a.logger.Info("Story uploaded", "bytes", len(job.Image), "has_location", job.Lat != nil && job.Lon != nil)
	return nil
}
