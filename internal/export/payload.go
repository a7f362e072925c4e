package export

import (
	"time"

	"github.com/boostify/editor-agent/internal/render"
	"github.com/boostify/editor-agent/internal/timeline"
)

const (
	defaultImageFit   = "cover"
	maxProjectNameLen = 100
)

// Options carry the per-export values that do not come from presets.
type Options struct {
	ProjectName string
	AudioURL    string
	// Duration overrides the session length when positive.
	Duration float64
	Now      func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) duration(s *timeline.Session) float64 {
	if o.Duration > 0 {
		return o.Duration
	}
	return s.Duration()
}

// DefaultProjectName is used when the caller gives no usable name.
func DefaultProjectName(t time.Time) string {
	return "Export_" + t.UTC().Format("2006-01-02")
}

// BuildRequest assembles the render service payload. Clips keep their session
// order.
func BuildRequest(s *timeline.Session, cfg JobConfig, opts Options) render.ExportRequest {
	clips := make([]render.ClipPayload, 0, len(s.Clips))
	for _, c := range s.Clips {
		clips = append(clips, clipPayload(c))
	}

	name := SanitizeName(opts.ProjectName, maxProjectNameLen)
	if name == "" {
		name = DefaultProjectName(opts.now())
	}

	return render.ExportRequest{
		Clips: clips,
		Settings: render.SettingsPayload{
			Format:      cfg.Format.ID,
			Width:       cfg.Width,
			Height:      cfg.Height,
			FPS:         cfg.Quality.FPS,
			Bitrate:     cfg.Quality.Bitrate,
			Quality:     cfg.Quality.ID,
			AspectRatio: cfg.AspectRatio.ID,
		},
		Duration:    cfg.DurationSeconds,
		AudioURL:    opts.AudioURL,
		ProjectName: name,
	}
}

func clipPayload(c timeline.Clip) render.ClipPayload {
	p := render.ClipPayload{
		ID:       c.ID,
		Start:    c.Start,
		Duration: c.Duration,
		LayerID:  c.LayerID,
		Type:     string(c.Type),
		ImageURL: firstNonEmpty(c.ImageURL, c.URL),
		VideoURL: firstNonEmpty(c.Metadata.VideoURL, c.VideoURL),
		Title:    c.Title,
		ImageFit: firstNonEmpty(c.Metadata.ImageFit, defaultImageFit),
	}

	if len(c.Effects) > 0 {
		p.Effects = make([]render.Effect, len(c.Effects))
		for i, e := range c.Effects {
			p.Effects[i] = render.Effect{Type: e.Type, Intensity: e.Intensity, Params: e.Params}
		}
	}
	if c.Transition != nil {
		p.Transition = &render.Transition{Type: c.Transition.Type, Duration: c.Transition.Duration}
	}
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
