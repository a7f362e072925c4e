package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/boostify/editor-agent/internal/logging"
)

const (
	exportPath = "/api/video-projects/export"
	healthPath = "/health"

	maxResponseBytes = 64 * 1024
)

// HTTPClient is the production render client. Calls are throttled by a token
// bucket so a burst of exports or status polls cannot flood the render service.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type HTTPClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RatePerSecond caps outbound calls; zero means unlimited.
	RatePerSecond float64
	Logger        *slog.Logger
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &HTTPClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  cfg.Logger,
	}
}

func (c *HTTPClient) SubmitExport(ctx context.Context, payload ExportRequest) (*ExportResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}

	c.logger.Info("submitting export to render service",
		"project_name", payload.ProjectName,
		"clip_count", len(payload.Clips),
		"format", payload.Settings.Format,
		"width", payload.Settings.Width,
		"height", payload.Settings.Height,
		"body_bytes", len(body),
	)

	respBody, err := c.do(ctx, http.MethodPost, exportPath, body)
	if err != nil {
		return nil, err
	}

	var result ExportResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decode export response: %v", ErrTransport, err)
	}
	return &result, nil
}

func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	respBody, err := c.do(ctx, http.MethodGet, exportPath+"/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("%w: decode job status: %v", ErrTransport, err)
	}
	if status.JobID == "" {
		status.JobID = jobID
	}
	return &status, nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, healthPath, nil)
	return err
}

// do performs one call and returns the body of a 2xx response. Non-2xx
// replies become *StatusError, everything else wraps ErrTransport.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	c.logger.Debug("render service call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"response", logging.Bytes(int64(len(respBody))),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}
