package export

import (
	"strings"
	"testing"

	"github.com/boostify/editor-agent/internal/timeline"
)

func edlSession(clips ...timeline.Clip) *timeline.Session {
	s := timeline.NewSession()
	s.Clips = append(s.Clips, clips...)
	return s
}

func TestGenerateEDL_SingleClip(t *testing.T) {
	s := edlSession(timeline.Clip{
		ID: "c1", LayerID: timeline.LayerVisual, Type: timeline.ClipVideo,
		Title: "Intro", VideoURL: "https://cdn/intro.mp4", Start: 0, Duration: 2,
	})

	edl := GenerateEDL(s, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  https://cdn/intro.mp4") {
		t.Fatalf("missing media path comment: %q", edl)
	}
}

func TestGenerateEDL_RecordsTimelinePosition(t *testing.T) {
	s := edlSession(
		timeline.Clip{ID: "b", LayerID: timeline.LayerVisual, Type: timeline.ClipImage, Title: "Clip B", URL: "/b.png", Start: 1, Duration: 1.5},
		timeline.Clip{ID: "a", LayerID: timeline.LayerVisual, Type: timeline.ClipImage, Title: "Clip A", URL: "/a.png", Start: 0, Duration: 1},
	)

	edl := GenerateEDL(s, "Multi", 30.0)

	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00") {
		t.Fatalf("first event line mismatch: %q", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:00 00:00:01:15 00:00:01:00 00:00:02:15") {
		t.Fatalf("second event line mismatch: %q", edl)
	}
	if strings.Index(edl, "Clip A") > strings.Index(edl, "Clip B") {
		t.Fatalf("events not ordered by start: %q", edl)
	}
}

func TestGenerateEDL_AudioAfterVideo(t *testing.T) {
	s := edlSession(
		timeline.Clip{ID: "song", LayerID: timeline.LayerAudio, Type: timeline.ClipAudio, URL: "/song.mp3", Start: 0, Duration: 3},
		timeline.Clip{ID: "shot", LayerID: timeline.LayerVisual, Type: timeline.ClipVideo, Title: "Shot", Start: 0, Duration: 3},
	)

	edl := GenerateEDL(s, "Mix", 30.0)

	if !strings.Contains(edl, "001  AX       V ") {
		t.Fatalf("expected video event first: %q", edl)
	}
	if !strings.Contains(edl, "002  AX       A ") {
		t.Fatalf("expected audio event second: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  song") {
		t.Fatalf("untitled clip should fall back to its id: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	s := edlSession(timeline.Clip{ID: "c", LayerID: timeline.LayerVisual, Type: timeline.ClipVideo, Start: 0, Duration: 1})
	edl := GenerateEDL(s, "Drop", 29.97)

	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestGenerateEDL_Empty(t *testing.T) {
	edl := GenerateEDL(timeline.NewSession(), "Empty", 0)
	if strings.Contains(edl, "001") {
		t.Fatalf("empty session should produce no events: %q", edl)
	}
}

func TestSecondsToTimecode(t *testing.T) {
	tests := []struct {
		name string
		sec  float64
		fps  int
		want string
	}{
		{name: "zero", sec: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", sec: 1, fps: 30, want: "00:00:01:00"},
		{name: "fractional second", sec: 0.5, fps: 30, want: "00:00:00:15"},
		{name: "one minute", sec: 60, fps: 30, want: "00:01:00:00"},
		{name: "one hour", sec: 3600, fps: 30, want: "01:00:00:00"},
		{name: "24 fps", sec: 1.5, fps: 24, want: "00:00:01:12"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := secondsToTimecode(tc.sec, tc.fps)
			if got != tc.want {
				t.Fatalf("secondsToTimecode(%v, %d) = %q, want %q", tc.sec, tc.fps, got, tc.want)
			}
		})
	}
}
