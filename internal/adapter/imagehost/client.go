// Package imagehost uploads raw image bytes to a remote hosting service and
// returns the hosted URL. The event creation flow requires this URL before an
// event may be constructed; upload failures surface to the user and are never
// retried here.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rainydays/core/internal/observability"
)

// ErrNoURL is returned when the service accepts the upload but the response
// carries no usable URL.
var ErrNoURL = errors.New("upload response contains no URL")

// UploadError reports a rejected upload.
type UploadError struct {
	Status int
	Body   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload rejected: status %d: %s", e.Status, e.Body)
}

// Client uploads images via multipart POST with an upload preset.
type Client struct {
	uploadURL  string
	preset     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an image hosting client.
func NewClient(uploadURL, preset string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		uploadURL: uploadURL,
		preset:    preset,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Upload sends the image bytes and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	hostedURL, err := c.doUpload(ctx, data, filename)
	if err != nil {
		c.metrics.ImageUploads.WithLabelValues("error").Inc()
		return "", err
	}
	c.metrics.ImageUploads.WithLabelValues("success").Inc()

	c.logger.Debug("image uploaded", "filename", filename, "bytes", len(data))
	return hostedURL, nil
}

func (c *Client) doUpload(ctx context.Context, data []byte, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return "", fmt.Errorf("write preset field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write image data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UploadError{Status: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", ErrNoURL
}
