// Package render talks to the external render service that turns an export
// request into a video file.
package render

// ExportRequest is the request body sent to POST /api/video-projects/export.
type ExportRequest struct {
	Clips       []ClipPayload   `json:"clips"`
	Settings    SettingsPayload `json:"settings"`
	Duration    float64         `json:"duration"`
	AudioURL    string          `json:"audioUrl,omitempty"`
	ProjectName string          `json:"projectName"`
}

type ClipPayload struct {
	ID         string      `json:"id"`
	Start      float64     `json:"start"`
	Duration   float64     `json:"duration"`
	LayerID    int         `json:"layerId"`
	Type       string      `json:"type"`
	ImageURL   string      `json:"imageUrl,omitempty"`
	VideoURL   string      `json:"videoUrl,omitempty"`
	Title      string      `json:"title,omitempty"`
	Effects    []Effect    `json:"effects,omitempty"`
	Transition *Transition `json:"transition,omitempty"`
	ImageFit   string      `json:"imageFit,omitempty"`
}

type Effect struct {
	Type      string         `json:"type"`
	Intensity float64        `json:"intensity,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

type Transition struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration,omitempty"`
}

type SettingsPayload struct {
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FPS         int    `json:"fps"`
	Bitrate     int    `json:"bitrate"`
	Quality     string `json:"quality"`
	AspectRatio string `json:"aspectRatio"`
}

// ExportResponse is a successful reply: either the render finished and a
// download URL is ready, or it was queued under a job id.
type ExportResponse struct {
	DownloadURL string `json:"downloadUrl,omitempty"`
	JobID       string `json:"jobId,omitempty"`
}

const (
	JobPending   = "pending"
	JobRendering = "rendering"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobStatus is the response from GET /api/video-projects/export/{jobId}.
type JobStatus struct {
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (s JobStatus) Done() bool {
	return s.Status == JobCompleted || s.Status == JobFailed
}

type errorBody struct {
	Error string `json:"error"`
}
