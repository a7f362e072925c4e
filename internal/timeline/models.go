// Package timeline holds the editor session: the ordered list of tracks and the
// clip collection placed on them.
package timeline

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TrackType string

const (
	TrackVideo   TrackType = "video"
	TrackAudio   TrackType = "audio"
	TrackText    TrackType = "text"
	TrackOverlay TrackType = "overlay"
)

// Layer ids used by the export payload to tell visual clips from audio clips.
const (
	LayerVisual = 1
	LayerAudio  = 2
)

const (
	DefaultVolume = 100
	MaxVolume     = 100
)

func (t TrackType) Valid() bool {
	switch t {
	case TrackVideo, TrackAudio, TrackText, TrackOverlay:
		return true
	}
	return false
}

// HasVolume reports whether tracks of this type carry a volume level.
func (t TrackType) HasVolume() bool {
	return t == TrackVideo || t == TrackAudio
}

// Color is the display colour used for tracks of this type.
func (t TrackType) Color() string {
	switch t {
	case TrackVideo:
		return "#4B91F7"
	case TrackAudio:
		return "#47B881"
	case TrackText:
		return "#F7D154"
	case TrackOverlay:
		return "#D14343"
	default:
		return "#CCCCCC"
	}
}

// Layer is the export layer clips on a track of this type default to.
func (t TrackType) Layer() int {
	if t == TrackAudio {
		return LayerAudio
	}
	return LayerVisual
}

func (t TrackType) displayName() string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type Track struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      TrackType  `json:"type"`
	Position  int        `json:"position"`
	Visible   bool       `json:"visible"`
	Locked    bool       `json:"locked"`
	Muted     bool       `json:"muted"`
	Solo      bool       `json:"solo"`
	Volume    *int       `json:"volume,omitempty"`
	Color     string     `json:"color"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TrackUpdate is a partial track update; nil fields are left untouched.
type TrackUpdate struct {
	Visible *bool `json:"visible,omitempty"`
	Locked  *bool `json:"locked,omitempty"`
	Muted   *bool `json:"muted,omitempty"`
	Solo    *bool `json:"solo,omitempty"`
	Volume  *int  `json:"volume,omitempty"`
}

type ClipType string

const (
	ClipVideo ClipType = "video"
	ClipImage ClipType = "image"
	ClipAudio ClipType = "audio"
	ClipText  ClipType = "text"
)

func (t ClipType) Valid() bool {
	switch t {
	case ClipVideo, ClipImage, ClipAudio, ClipText:
		return true
	}
	return false
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

type ClipMetadata struct {
	ImageFit string `json:"image_fit,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// Clip is a time-positioned media reference. Start and Duration are seconds.
type Clip struct {
	ID         string       `json:"id"`
	TrackID    string       `json:"track_id"`
	LayerID    int          `json:"layer_id"`
	Type       ClipType     `json:"type"`
	Start      float64      `json:"start"`
	Duration   float64      `json:"duration"`
	URL        string       `json:"url,omitempty"`
	ImageURL   string       `json:"image_url,omitempty"`
	VideoURL   string       `json:"video_url,omitempty"`
	Title      string       `json:"title,omitempty"`
	Effects    []Effect     `json:"effects,omitempty"`
	Transition *Transition  `json:"transition,omitempty"`
	Metadata   ClipMetadata `json:"metadata"`
}

// End is the clip's end time in seconds.
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// ClipUpdate is a partial clip update; nil fields are left untouched.
type ClipUpdate struct {
	Start      *float64      `json:"start,omitempty"`
	Duration   *float64      `json:"duration,omitempty"`
	URL        *string       `json:"url,omitempty"`
	ImageURL   *string       `json:"image_url,omitempty"`
	VideoURL   *string       `json:"video_url,omitempty"`
	Title      *string       `json:"title,omitempty"`
	Effects    []Effect      `json:"effects,omitempty"`
	Transition *Transition   `json:"transition,omitempty"`
	Metadata   *ClipMetadata `json:"metadata,omitempty"`
}

// NewID returns a random identifier for tracks and clips.
func NewID() string {
	return uuid.NewString()
}
