// Package project persists editor projects and their export history, and
// follows queued renders until the render service reports a result.
package project

import (
	"time"

	"github.com/boostify/editor-agent/internal/timeline"
)

type Project struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	AspectRatio   string            `json:"aspect_ratio"`
	AudioURL      string            `json:"audio_url,omitempty"`
	Session       *timeline.Session `json:"session"`
	LastExportURL string            `json:"last_export_url,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

const (
	ExportStatusSubmitting = "submitting"
	ExportStatusCompleted  = "completed"
	ExportStatusQueued     = "queued"
	ExportStatusRendering  = "rendering"
	ExportStatusFailed     = "failed"
	ExportStatusCancelled  = "cancelled"
)

// ExportJob is the local record of one export submission.
type ExportJob struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	RemoteJobID string    `json:"remote_job_id,omitempty"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	DownloadURL string    `json:"download_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	Format      string    `json:"format"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Active reports whether the render service still owes a result.
func (j *ExportJob) Active() bool {
	return j.Status == ExportStatusQueued || j.Status == ExportStatusRendering
}

func (j *ExportJob) Terminal() bool {
	switch j.Status {
	case ExportStatusCompleted, ExportStatusFailed, ExportStatusCancelled:
		return true
	}
	return false
}

const (
	ConfigAuthToken = "auth_token"
	ConfigDeviceID  = "device_id"
)

// DefaultTrackName is the name of the video track every new project starts with.
const DefaultTrackName = "Video Track 1"
