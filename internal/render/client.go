package render

import (
	"context"
	"log/slog"
)

type Client interface {
	SubmitExport(ctx context.Context, req ExportRequest) (*ExportResponse, error)
	JobStatus(ctx context.Context, jobID string) (*JobStatus, error)
	Health(ctx context.Context) error
}

// StubClient stands in when no render service is configured. Every call fails
// with ErrUnavailable so exports are refused instead of silently dropped.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) SubmitExport(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	c.logger.Warn("render stub: export requested but no render service configured",
		"project_name", req.ProjectName, "clips", len(req.Clips))
	return nil, ErrUnavailable
}

func (c *StubClient) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	c.logger.Debug("render stub: job status requested", "job_id", jobID)
	return nil, ErrUnavailable
}

func (c *StubClient) Health(ctx context.Context) error {
	return ErrUnavailable
}
