package project

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/boostify/editor-agent/internal/export"
	"github.com/boostify/editor-agent/internal/logging"
	"github.com/boostify/editor-agent/internal/render"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollMaxWait  = 10 * time.Minute

	timedOutMessage = "render timed out"
)

// StatusClient is the part of the render client the runner needs.
type StatusClient interface {
	JobStatus(ctx context.Context, jobID string) (*render.JobStatus, error)
}

type RunnerConfig struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Runner follows queued renders. Every tick it asks the render service for
// the state of each queued or rendering export and records the answer.
type Runner struct {
	service      *Service
	repo         Repository
	client       StatusClient
	logger       *slog.Logger
	pollInterval time.Duration
	maxWait      time.Duration
	now          func() time.Time
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, client StatusClient, logger *slog.Logger, cfg RunnerConfig) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultPollMaxWait
	}
	return &Runner{
		service:      service,
		repo:         repo,
		client:       client,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}
	defer r.running.Store(false)

	r.logger.Info("render follow-up runner started", "interval", r.pollInterval, "max_wait", r.maxWait)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("render follow-up runner stopping")
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.Poll(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("render follow-up runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("render follow-up runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Poll checks every active export once.
func (r *Runner) Poll(ctx context.Context) {
	jobs, err := r.repo.ListActiveExports(ctx)
	if err != nil {
		r.logger.Error("failed to list active exports", "error", err)
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		r.pollJob(ctx, job)
	}
}

// ActiveCount is the number of exports still waiting on the render service.
func (r *Runner) ActiveCount(ctx context.Context) int {
	jobs, err := r.repo.ListActiveExports(ctx)
	if err != nil {
		return 0
	}
	return len(jobs)
}

func (r *Runner) pollJob(ctx context.Context, job *ExportJob) {
	logger := logging.WithJobID(logging.WithProjectID(r.logger, job.ProjectID), job.RemoteJobID).With("export_id", job.ID)

	if r.now().Sub(job.CreatedAt) > r.maxWait {
		logger.Warn("render exceeded max wait", "max_wait", r.maxWait)
		r.fail(ctx, job.ID, timedOutMessage)
		return
	}
	if job.RemoteJobID == "" {
		r.fail(ctx, job.ID, export.ErrEmptyResponse.Error())
		return
	}

	status, err := r.client.JobStatus(ctx, job.RemoteJobID)
	if err != nil {
		var se *render.StatusError
		if errors.As(err, &se) && !se.IsRetryable() {
			logger.Warn("render service rejected status query", "status", se.StatusCode, "error", err)
			r.fail(ctx, job.ID, se.Message)
			return
		}
		logger.Warn("render status poll failed, will retry", "error", err)
		return
	}

	switch status.Status {
	case render.JobCompleted:
		if status.DownloadURL == "" {
			r.fail(ctx, job.ID, export.ErrEmptyResponse.Error())
			return
		}
		_, applied, err := r.service.applyExportUpdate(ctx, job.ID, func(j *ExportJob) {
			j.Status = ExportStatusCompleted
			j.Progress = 100
			j.DownloadURL = status.DownloadURL
		})
		if err != nil {
			logger.Error("failed to record completed render", "error", err)
			return
		}
		if applied {
			r.service.exportCompleted(job.ProjectID, status.DownloadURL)
		}

	case render.JobFailed:
		msg := status.Error
		if msg == "" {
			msg = render.DefaultErrorMessage
		}
		logger.Warn("render failed", "error", msg)
		r.fail(ctx, job.ID, msg)

	default:
		progress := clampProgress(status.Progress)
		_, _, err := r.service.applyExportUpdate(ctx, job.ID, func(j *ExportJob) {
			if status.Status == render.JobRendering {
				j.Status = ExportStatusRendering
			}
			j.Progress = progress
		})
		if err != nil {
			logger.Error("failed to record render progress", "error", err)
		}
	}
}

func (r *Runner) fail(ctx context.Context, id, msg string) {
	if _, _, err := r.service.applyExportUpdate(ctx, id, func(j *ExportJob) {
		j.Status = ExportStatusFailed
		j.Error = msg
	}); err != nil {
		r.logger.Error("failed to record export failure", "export_id", id, "error", err)
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
