package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/boostify/editor-agent/internal/export"
	"github.com/boostify/editor-agent/internal/logging"
	"github.com/boostify/editor-agent/internal/timeline"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrClipNotFound    = errors.New("clip not found")
	ErrExportNotFound  = errors.New("export not found")
	ErrExportFinished  = errors.New("export already finished")
	ErrInvalidReorder  = errors.New("track index out of range")
	ErrInvalidName     = errors.New("project name is required")
)

const maxNameLen = 200

type CreateInput struct {
	Name        string `json:"name"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

// Update is a partial project update; nil fields are left untouched.
type Update struct {
	Name        *string `json:"name,omitempty"`
	AspectRatio *string `json:"aspect_ratio,omitempty"`
	AudioURL    *string `json:"audio_url,omitempty"`
}

type ExportInput struct {
	Settings    export.Settings
	ProjectName string
	Duration    float64
}

// Preview is the derived export configuration shown before submitting.
type Preview struct {
	Config     export.JobConfig `json:"config"`
	ClipCount  int              `json:"clip_count"`
	VideoClips int              `json:"video_clips"`
	AudioClips int              `json:"audio_clips"`
	FileName   string           `json:"file_name"`
}

// Service owns project mutations. Every change is load, mutate, save under a
// single lock, so sessions never see concurrent writers.
type Service struct {
	repo     Repository
	exporter *export.Exporter
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

func NewService(repo Repository, submitter export.Submitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.exporter = export.NewExporter(submitter, logging.WithComponent(logger, "exporter"), s.exportCompleted)
	return s
}

func (s *Service) CreateProject(ctx context.Context, in CreateInput) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if len([]rune(name)) > maxNameLen {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidName, maxNameLen)
	}

	aspect := in.AspectRatio
	if aspect == "" {
		aspect = export.DefaultAspectRatio
	}
	if _, err := export.LookupAspectRatio(aspect); err != nil {
		return nil, err
	}

	now := s.now()
	session := timeline.NewSession()
	session.SetClock(s.now)
	if _, err := session.AddTrack(timeline.TrackVideo); err != nil {
		return nil, err
	}
	session.Tracks[0].Name = DefaultTrackName

	p := &Project{
		ID:          timeline.NewID(),
		Name:        name,
		AspectRatio: aspect,
		AudioURL:    in.AudioURL,
		Session:     session,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project created", "project_id", p.ID, "aspect_ratio", aspect)
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) UpdateProject(ctx context.Context, id string, u Update) (*Project, error) {
	return s.mutate(ctx, id, func(p *Project) error {
		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return ErrInvalidName
			}
			p.Name = name
		}
		if u.AspectRatio != nil {
			if _, err := export.LookupAspectRatio(*u.AspectRatio); err != nil {
				return err
			}
			p.AspectRatio = *u.AspectRatio
		}
		if u.AudioURL != nil {
			p.AudioURL = *u.AudioURL
		}
		return nil
	})
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProjectNotFound
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

func (s *Service) AddTrack(ctx context.Context, projectID string, typ timeline.TrackType) (timeline.Track, error) {
	var track timeline.Track
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		var err error
		track, err = p.Session.AddTrack(typ)
		return err
	})
	return track, err
}

func (s *Service) UpdateTrack(ctx context.Context, projectID, trackID string, u timeline.TrackUpdate) (timeline.Track, error) {
	var track timeline.Track
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		if !p.Session.UpdateTrack(trackID, u) {
			return timeline.ErrTrackNotFound
		}
		track, _ = p.Session.Track(trackID)
		return nil
	})
	return track, err
}

func (s *Service) RemoveTrack(ctx context.Context, projectID, trackID string) error {
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		if !p.Session.RemoveTrack(trackID) {
			return timeline.ErrTrackNotFound
		}
		return nil
	})
	return err
}

func (s *Service) ReorderTracks(ctx context.Context, projectID string, src, dst int) ([]timeline.Track, error) {
	p, err := s.mutate(ctx, projectID, func(p *Project) error {
		if !p.Session.ReorderTracks(src, dst) {
			return fmt.Errorf("%w: %d -> %d", ErrInvalidReorder, src, dst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.Session.Tracks, nil
}

func (s *Service) SetSolo(ctx context.Context, projectID, trackID string, solo bool) ([]timeline.Track, error) {
	p, err := s.mutate(ctx, projectID, func(p *Project) error {
		if !p.Session.SetSolo(trackID, solo) {
			return timeline.ErrTrackNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.Session.Tracks, nil
}

func (s *Service) AddClip(ctx context.Context, projectID string, c timeline.Clip) (timeline.Clip, error) {
	var clip timeline.Clip
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		var err error
		clip, err = p.Session.AddClip(c)
		return err
	})
	return clip, err
}

func (s *Service) UpdateClip(ctx context.Context, projectID, clipID string, u timeline.ClipUpdate) (timeline.Clip, error) {
	var clip timeline.Clip
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		updated, found, err := p.Session.UpdateClip(clipID, u)
		if !found {
			return ErrClipNotFound
		}
		if err != nil {
			return err
		}
		clip = updated
		return nil
	})
	return clip, err
}

func (s *Service) RemoveClip(ctx context.Context, projectID, clipID string) error {
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		found, err := p.Session.RemoveClip(clipID)
		if !found {
			return ErrClipNotFound
		}
		return err
	})
	return err
}

// mutate loads the project, applies fn and saves it. Nothing is written when
// fn fails.
func (s *Service) mutate(ctx context.Context, id string, fn func(p *Project) error) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	p.Session.SetClock(s.now)

	if err := fn(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PreviewExport resolves the export configuration without touching the
// network.
func (s *Service) PreviewExport(ctx context.Context, projectID string, in ExportInput) (*Preview, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	duration := in.Duration
	if duration <= 0 {
		duration = p.Session.Duration()
	}
	cfg, err := export.NewJobConfig(in.Settings.WithDefaults(p.AspectRatio), duration)
	if err != nil {
		return nil, err
	}

	name := in.ProjectName
	if name == "" {
		name = p.Name
	}
	return &Preview{
		Config:     cfg,
		ClipCount:  len(p.Session.Clips),
		VideoClips: len(p.Session.ClipsOnLayer(timeline.LayerVisual)),
		AudioClips: len(p.Session.ClipsOnLayer(timeline.LayerAudio)),
		FileName:   export.FileName(name, cfg.Format),
	}, nil
}

// Export submits the project to the render service and records the attempt.
// The returned job reflects the outcome: completed, queued or failed.
func (s *Service) Export(ctx context.Context, projectID string, in ExportInput) (*ExportJob, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(p.Session.Clips) == 0 {
		return nil, export.ErrNoClips
	}
	if s.exporter.State(projectID).Exporting() {
		return nil, export.ErrExportInProgress
	}

	settings := in.Settings.WithDefaults(p.AspectRatio)
	duration := in.Duration
	if duration <= 0 {
		duration = p.Session.Duration()
	}
	cfg, err := export.NewJobConfig(settings, duration)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := &ExportJob{
		ID:        timeline.NewID(),
		ProjectID: projectID,
		Status:    ExportStatusSubmitting,
		Format:    cfg.Format.ID,
		Width:     cfg.Width,
		Height:    cfg.Height,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateExport(ctx, job); err != nil {
		return nil, err
	}

	name := in.ProjectName
	if name == "" {
		name = p.Name
	}
	res, exportErr := s.exporter.Export(ctx, projectID, p.Session.Clone(), settings, export.Options{
		ProjectName: name,
		AudioURL:    p.AudioURL,
		Duration:    duration,
		Now:         s.now,
	})

	// The request context may already be gone; the record must still land.
	recordCtx := context.WithoutCancel(ctx)

	if errors.Is(exportErr, export.ErrExportInProgress) {
		if err := s.repo.DeleteExport(recordCtx, job.ID); err != nil {
			s.logger.Error("failed to drop refused export", "export_id", job.ID, "error", err)
		}
		return nil, exportErr
	}

	updated, applied, err := s.applyExportUpdate(recordCtx, job.ID, func(j *ExportJob) {
		switch {
		case exportErr != nil:
			j.Status = ExportStatusFailed
			j.Error = exportErr.Error()
		case res.Status == export.OutcomeCompleted:
			j.Status = ExportStatusCompleted
			j.Progress = 100
			j.DownloadURL = res.DownloadURL
		case res.Status == export.OutcomeQueued:
			j.Status = ExportStatusQueued
			j.RemoteJobID = res.JobID
		}
	})
	if err != nil {
		s.logger.Error("failed to record export outcome", "export_id", job.ID, "error", err)
		if exportErr == nil {
			return job, err
		}
		return job, exportErr
	}
	if !applied {
		s.logger.Info("export outcome discarded", "export_id", job.ID, "status", updated.Status)
	}
	return updated, exportErr
}

// ExportState is the exporter's view of the project's current submission.
func (s *Service) ExportState(projectID string) export.State {
	return s.exporter.State(projectID)
}

func (s *Service) EDL(ctx context.Context, projectID string, fps float64) (string, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return export.GenerateEDL(p.Session, p.Name, fps), nil
}

func (s *Service) GetExport(ctx context.Context, id string) (*ExportJob, error) {
	j, err := s.repo.GetExport(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrExportNotFound
	}
	return j, nil
}

func (s *Service) ListExports(ctx context.Context, projectID string, limit int) ([]*ExportJob, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListExports(ctx, projectID, limit)
}

// CancelExport stops local follow-up of a queued render. The render service
// has no cancel endpoint, so the remote job may still finish.
func (s *Service) CancelExport(ctx context.Context, id string) (*ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.repo.GetExport(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrExportNotFound
	}
	if j.Terminal() {
		return j, fmt.Errorf("%w: %s", ErrExportFinished, j.Status)
	}

	j.Status = ExportStatusCancelled
	j.UpdatedAt = s.now()
	if err := s.repo.UpdateExport(ctx, j); err != nil {
		return nil, err
	}
	s.logger.Info("export cancelled", "export_id", id, "project_id", j.ProjectID)
	return j, nil
}

// applyExportUpdate re-reads the record under the service lock and applies fn
// unless the export was cancelled or finished in the meantime. applied is
// false when fn was skipped.
func (s *Service) applyExportUpdate(ctx context.Context, id string, fn func(j *ExportJob)) (job *ExportJob, applied bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.repo.GetExport(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if j == nil {
		return nil, false, ErrExportNotFound
	}
	if j.Terminal() {
		return j, false, nil
	}

	fn(j)
	j.UpdatedAt = s.now()
	if err := s.repo.UpdateExport(ctx, j); err != nil {
		return nil, false, err
	}
	return j, true, nil
}

func (s *Service) exportCompleted(projectID, downloadURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SetLastExportURL(context.Background(), projectID, downloadURL); err != nil {
		s.logger.Error("failed to store export url", "project_id", projectID, "error", err)
		return
	}
	s.logger.Info("export ready", "project_id", projectID, "download_url", logging.SanitizeURL(downloadURL))
}
