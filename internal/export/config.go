package export

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownPreset   = errors.New("unknown export preset")
	ErrInvalidDuration = errors.New("export duration must not be negative")
)

// Settings are the user's preset choices. Empty fields fall back to defaults.
type Settings struct {
	Format      string `json:"format,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Quality     string `json:"quality,omitempty"`
}

// WithDefaults fills empty choices. projectAspect is the project's own ratio
// and wins over the global default when set.
func (s Settings) WithDefaults(projectAspect string) Settings {
	if s.Format == "" {
		s.Format = DefaultFormat
	}
	if s.Resolution == "" {
		s.Resolution = DefaultResolution
	}
	if s.Quality == "" {
		s.Quality = DefaultQuality
	}
	if s.AspectRatio == "" {
		s.AspectRatio = projectAspect
	}
	if s.AspectRatio == "" {
		s.AspectRatio = DefaultAspectRatio
	}
	return s
}

// JobConfig is the resolved, immutable description of one export.
type JobConfig struct {
	Format          Format      `json:"format"`
	Resolution      Resolution  `json:"resolution"`
	AspectRatio     AspectRatio `json:"aspect_ratio"`
	Quality         Quality     `json:"quality"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	DurationSeconds float64     `json:"duration_seconds"`
	EstimatedBytes  int64       `json:"estimated_bytes"`
	EstimatedSize   string      `json:"estimated_size"`
}

func NewJobConfig(s Settings, duration float64) (JobConfig, error) {
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return JobConfig{}, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}

	s = s.WithDefaults("")

	format, err := LookupFormat(s.Format)
	if err != nil {
		return JobConfig{}, err
	}
	res, err := LookupResolution(s.Resolution)
	if err != nil {
		return JobConfig{}, err
	}
	ar, err := LookupAspectRatio(s.AspectRatio)
	if err != nil {
		return JobConfig{}, err
	}
	quality, err := LookupQuality(s.Quality)
	if err != nil {
		return JobConfig{}, err
	}

	w, h := EffectiveResolution(res, ar)
	bytes := EstimateFileSize(float64(quality.Bitrate), duration)

	return JobConfig{
		Format:          format,
		Resolution:      res,
		AspectRatio:     ar,
		Quality:         quality,
		Width:           w,
		Height:          h,
		DurationSeconds: duration,
		EstimatedBytes:  bytes,
		EstimatedSize:   FormatFileSize(bytes),
	}, nil
}

// Settings returns the preset ids the config was built from.
func (c JobConfig) Settings() Settings {
	return Settings{
		Format:      c.Format.ID,
		Resolution:  c.Resolution.ID,
		AspectRatio: c.AspectRatio.ID,
		Quality:     c.Quality.ID,
	}
}
