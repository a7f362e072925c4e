package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/boostify/editor-agent/internal/logging"
	"github.com/boostify/editor-agent/internal/render"
	"github.com/boostify/editor-agent/internal/timeline"
)

var (
	ErrNoClips          = errors.New("no clips to export")
	ErrEmptyResponse    = errors.New("render service returned neither a download url nor a job id")
	ErrExportInProgress = errors.New("an export is already in progress for this project")
	ErrUnexpected       = errors.New("unexpected export error")
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeQueued    Outcome = "queued"
	OutcomeFailed    Outcome = "failed"
)

// State is the observable export lifecycle of one project.
type State struct {
	ProjectID   string    `json:"project_id"`
	Phase       Phase     `json:"phase"`
	LastOutcome Outcome   `json:"last_outcome,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	JobID       string    `json:"job_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Exporting reports whether a submission is in flight.
func (s State) Exporting() bool {
	return s.Phase != PhaseIdle
}

type Result struct {
	Status      Outcome   `json:"status"`
	DownloadURL string    `json:"download_url,omitempty"`
	JobID       string    `json:"job_id,omitempty"`
	Config      JobConfig `json:"config"`
}

// Submitter is the part of the render client the exporter needs.
type Submitter interface {
	SubmitExport(ctx context.Context, req render.ExportRequest) (*render.ExportResponse, error)
}

// CompletionFunc is called once per export that finishes with a download URL.
type CompletionFunc func(projectID, downloadURL string)

// Exporter runs export submissions. Each project has at most one submission
// in flight; a second request is refused rather than queued.
type Exporter struct {
	client     Submitter
	logger     *slog.Logger
	onComplete CompletionFunc
	now        func() time.Time

	mu     sync.Mutex
	states map[string]*State
}

func NewExporter(client Submitter, logger *slog.Logger, onComplete CompletionFunc) *Exporter {
	return &Exporter{
		client:     client,
		logger:     logger,
		onComplete: onComplete,
		now:        time.Now,
		states:     make(map[string]*State),
	}
}

// State returns the project's current phase and last outcome.
func (e *Exporter) State(projectID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.states[projectID]; ok {
		return *st
	}
	return State{ProjectID: projectID, Phase: PhaseIdle}
}

// Export validates, builds and submits one export. The session must not be
// mutated while the call runs; callers pass a clone.
func (e *Exporter) Export(ctx context.Context, projectID string, s *timeline.Session, settings Settings, opts Options) (res Result, err error) {
	if err := e.begin(projectID); err != nil {
		return Result{}, err
	}

	logger := logging.WithProjectID(e.logger, projectID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("export panicked", "panic", r)
			res, err = Result{}, fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
		e.finish(projectID, res, err)
	}()

	if s == nil || len(s.Clips) == 0 {
		return Result{}, ErrNoClips
	}

	cfg, err := NewJobConfig(settings, opts.duration(s))
	if err != nil {
		return Result{}, err
	}
	req := BuildRequest(s, cfg, opts)

	e.setPhase(projectID, PhaseSubmitting)
	logger.Info("submitting export",
		"format", cfg.Format.ID,
		"width", cfg.Width,
		"height", cfg.Height,
		"clips", len(req.Clips),
		"estimated_size", cfg.EstimatedSize,
	)

	resp, err := e.client.SubmitExport(ctx, req)
	if err != nil {
		logger.Warn("export submission failed", "error", err)
		return Result{}, err
	}

	switch {
	case resp != nil && resp.DownloadURL != "":
		res = Result{Status: OutcomeCompleted, DownloadURL: resp.DownloadURL, Config: cfg}
		logger.Info("export completed", "download_url", logging.SanitizeURL(resp.DownloadURL))
		if e.onComplete != nil {
			e.onComplete(projectID, resp.DownloadURL)
		}
		return res, nil
	case resp != nil && resp.JobID != "":
		logging.WithJobID(logger, resp.JobID).Info("export queued")
		return Result{Status: OutcomeQueued, JobID: resp.JobID, Config: cfg}, nil
	default:
		return Result{}, ErrEmptyResponse
	}
}

func (e *Exporter) begin(projectID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[projectID]
	if !ok {
		st = &State{ProjectID: projectID}
		e.states[projectID] = st
	}
	if st.Phase != "" && st.Phase != PhaseIdle {
		return ErrExportInProgress
	}
	st.Phase = PhaseValidating
	st.UpdatedAt = e.now()
	return nil
}

func (e *Exporter) setPhase(projectID string, p Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.states[projectID]; ok {
		st.Phase = p
		st.UpdatedAt = e.now()
	}
}

func (e *Exporter) finish(projectID string, res Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.states[projectID]
	st.Phase = PhaseIdle
	st.UpdatedAt = e.now()
	st.LastError = ""
	st.DownloadURL = ""
	st.JobID = ""

	if err != nil {
		st.LastOutcome = OutcomeFailed
		st.LastError = err.Error()
		return
	}
	st.LastOutcome = res.Status
	st.DownloadURL = res.DownloadURL
	st.JobID = res.JobID
}
