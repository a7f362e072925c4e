// Package export turns an editor session plus a handful of preset choices into
// an immutable render job description and submits it to the render service.
package export

import "fmt"

const (
	DefaultFormat      = "mp4"
	DefaultResolution  = "1080p"
	DefaultQuality     = "high"
	DefaultAspectRatio = "16:9"
	DefaultFPS         = 30
)

type Format struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Extension   string `json:"extension"`
	MIMEType    string `json:"mime_type"`
	Description string `json:"description"`
}

type Resolution struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AspectRatio is stored as its integer terms so derived dimensions can be
// computed without floating point drift.
type AspectRatio struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Ratio is width over height.
func (a AspectRatio) Ratio() float64 {
	return float64(a.Width) / float64(a.Height)
}

// Portrait reports whether the ratio is taller than it is wide.
func (a AspectRatio) Portrait() bool {
	return a.Width < a.Height
}

type Quality struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Bitrate int    `json:"bitrate_mbps"`
	FPS     int    `json:"fps"`
}

var Formats = []Format{
	{ID: "mp4", Label: "MP4", Extension: ".mp4", MIMEType: "video/mp4", Description: "H.264, universal compatibility"},
	{ID: "webm", Label: "WebM", Extension: ".webm", MIMEType: "video/webm", Description: "VP9, web optimised"},
	{ID: "mov", Label: "MOV", Extension: ".mov", MIMEType: "video/quicktime", Description: "ProRes, Apple professional"},
	{ID: "gif", Label: "GIF", Extension: ".gif", MIMEType: "image/gif", Description: "Animated, social media"},
}

var Resolutions = []Resolution{
	{ID: "4k", Label: "4K Ultra HD", Width: 3840, Height: 2160},
	{ID: "1080p", Label: "Full HD", Width: 1920, Height: 1080},
	{ID: "720p", Label: "HD", Width: 1280, Height: 720},
	{ID: "480p", Label: "SD", Width: 854, Height: 480},
}

var AspectRatios = []AspectRatio{
	{ID: "16:9", Label: "Landscape", Width: 16, Height: 9},
	{ID: "9:16", Label: "Vertical", Width: 9, Height: 16},
	{ID: "1:1", Label: "Square", Width: 1, Height: 1},
	{ID: "4:3", Label: "Classic", Width: 4, Height: 3},
	{ID: "4:5", Label: "Portrait", Width: 4, Height: 5},
	{ID: "21:9", Label: "Cinematic", Width: 21, Height: 9},
}

var Qualities = []Quality{
	{ID: "draft", Label: "Draft", Bitrate: 2, FPS: 24},
	{ID: "standard", Label: "Standard", Bitrate: 8, FPS: 30},
	{ID: "high", Label: "High", Bitrate: 15, FPS: 30},
	{ID: "ultra", Label: "Ultra", Bitrate: 30, FPS: 60},
}

func LookupFormat(id string) (Format, error) {
	for _, f := range Formats {
		if f.ID == id {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: format %q", ErrUnknownPreset, id)
}

func LookupResolution(id string) (Resolution, error) {
	for _, r := range Resolutions {
		if r.ID == id {
			return r, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: resolution %q", ErrUnknownPreset, id)
}

func LookupAspectRatio(id string) (AspectRatio, error) {
	for _, a := range AspectRatios {
		if a.ID == id {
			return a, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("%w: aspect ratio %q", ErrUnknownPreset, id)
}

func LookupQuality(id string) (Quality, error) {
	for _, q := range Qualities {
		if q.ID == id {
			return q, nil
		}
	}
	return Quality{}, fmt.Errorf("%w: quality %q", ErrUnknownPreset, id)
}
