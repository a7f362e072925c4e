package api

import (
	"time"

	"github.com/boostify/editor-agent/internal/export"
	"github.com/boostify/editor-agent/internal/project"
	"github.com/boostify/editor-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string                `json:"state"`
	LastError     string                `json:"last_error,omitempty"`
	ProjectsCount int                   `json:"projects_count"`
	ExportsActive int                   `json:"exports_active"`
	RunnerPaused  bool                  `json:"runner_paused"`
	Render        *RenderStatusResponse `json:"render,omitempty"`
}

type RenderStatusResponse struct {
	Reachable   bool   `json:"reachable"`
	Error       string `json:"error,omitempty"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
}

type PresetsResponse struct {
	Formats      []export.Format      `json:"formats"`
	Resolutions  []export.Resolution  `json:"resolutions"`
	AspectRatios []export.AspectRatio `json:"aspect_ratios"`
	Qualities    []export.Quality     `json:"qualities"`
	Defaults     export.Settings      `json:"defaults"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	AspectRatio *string `json:"aspect_ratio,omitempty"`
	AudioURL    *string `json:"audio_url,omitempty"`
}

type ProjectResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	AspectRatio   string           `json:"aspect_ratio"`
	AudioURL      string           `json:"audio_url,omitempty"`
	LastExportURL string           `json:"last_export_url,omitempty"`
	Tracks        []timeline.Track `json:"tracks"`
	Clips         []timeline.Clip  `json:"clips"`
	Duration      float64          `json:"duration"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

type ProjectSummaryResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	AspectRatio   string  `json:"aspect_ratio"`
	TracksCount   int     `json:"tracks_count"`
	ClipsCount    int     `json:"clips_count"`
	Duration      float64 `json:"duration"`
	LastExportURL string  `json:"last_export_url,omitempty"`
	UpdatedAt     string  `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectSummaryResponse `json:"projects"`
}

type AddTrackRequest struct {
	Type timeline.TrackType `json:"type"`
}

type ReorderTracksRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type SoloRequest struct {
	Solo bool `json:"solo"`
}

type TracksResponse struct {
	Tracks []timeline.Track `json:"tracks"`
}

type AddClipRequest struct {
	TrackID    string                `json:"track_id"`
	LayerID    int                   `json:"layer_id,omitempty"`
	Type       timeline.ClipType     `json:"type"`
	Start      float64               `json:"start"`
	Duration   float64               `json:"duration"`
	URL        string                `json:"url,omitempty"`
	ImageURL   string                `json:"image_url,omitempty"`
	VideoURL   string                `json:"video_url,omitempty"`
	Title      string                `json:"title,omitempty"`
	Effects    []timeline.Effect     `json:"effects,omitempty"`
	Transition *timeline.Transition  `json:"transition,omitempty"`
	Metadata   timeline.ClipMetadata `json:"metadata"`
}

func (r AddClipRequest) Clip() timeline.Clip {
	return timeline.Clip{
		TrackID:    r.TrackID,
		LayerID:    r.LayerID,
		Type:       r.Type,
		Start:      r.Start,
		Duration:   r.Duration,
		URL:        r.URL,
		ImageURL:   r.ImageURL,
		VideoURL:   r.VideoURL,
		Title:      r.Title,
		Effects:    r.Effects,
		Transition: r.Transition,
		Metadata:   r.Metadata,
	}
}

type ExportRequest struct {
	Format      string  `json:"format,omitempty"`
	Resolution  string  `json:"resolution,omitempty"`
	AspectRatio string  `json:"aspect_ratio,omitempty"`
	Quality     string  `json:"quality,omitempty"`
	ProjectName string  `json:"project_name,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
}

func (r ExportRequest) Input() project.ExportInput {
	return project.ExportInput{
		Settings: export.Settings{
			Format:      r.Format,
			Resolution:  r.Resolution,
			AspectRatio: r.AspectRatio,
			Quality:     r.Quality,
		},
		ProjectName: r.ProjectName,
		Duration:    r.Duration,
	}
}

type ExportJobResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	RemoteJobID string `json:"remote_job_id,omitempty"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ExportJobsResponse struct {
	Exports []ExportJobResponse `json:"exports"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:            p.ID,
		Name:          p.Name,
		AspectRatio:   p.AspectRatio,
		AudioURL:      p.AudioURL,
		LastExportURL: p.LastExportURL,
		Tracks:        p.Session.Tracks,
		Clips:         p.Session.Clips,
		Duration:      p.Session.Duration(),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func ProjectToSummary(p *project.Project) ProjectSummaryResponse {
	return ProjectSummaryResponse{
		ID:            p.ID,
		Name:          p.Name,
		AspectRatio:   p.AspectRatio,
		TracksCount:   len(p.Session.Tracks),
		ClipsCount:    len(p.Session.Clips),
		Duration:      p.Session.Duration(),
		LastExportURL: p.LastExportURL,
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func ExportJobToResponse(j *project.ExportJob) ExportJobResponse {
	return ExportJobResponse{
		ID:          j.ID,
		ProjectID:   j.ProjectID,
		RemoteJobID: j.RemoteJobID,
		Status:      j.Status,
		Progress:    j.Progress,
		DownloadURL: j.DownloadURL,
		Error:       j.Error,
		Format:      j.Format,
		Width:       j.Width,
		Height:      j.Height,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
}
