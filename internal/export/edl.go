package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/boostify/editor-agent/internal/timeline"
)

// GenerateEDL renders the session as a CMX3600 edit decision list. Visual
// clips become V events and audio clips A events, each ordered by start time
// and recorded at their timeline position.
func GenerateEDL(s *timeline.Session, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = DefaultFPS
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	event := 0
	for _, ch := range []struct {
		layer   int
		channel string
	}{
		{timeline.LayerVisual, "V"},
		{timeline.LayerAudio, "A"},
	} {
		clips := s.ClipsOnLayer(ch.layer)
		sort.SliceStable(clips, func(i, j int) bool { return clips[i].Start < clips[j].Start })

		for _, clip := range clips {
			event++
			srcIn := secondsToTimecode(0, fps)
			srcOut := secondsToTimecode(clip.Duration, fps)
			recIn := secondsToTimecode(clip.Start, fps)
			recOut := secondsToTimecode(clip.End(), fps)

			lines = append(lines,
				fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, "AX", ch.channel, srcIn, srcOut, recIn, recOut),
				fmt.Sprintf("* FROM CLIP NAME:  %s", clipName(clip)),
			)
			if media := clipMedia(clip); media != "" {
				lines = append(lines, fmt.Sprintf("* MEDIA PATH:  %s", media))
			}
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func clipName(c timeline.Clip) string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}

func clipMedia(c timeline.Clip) string {
	return firstNonEmpty(c.Metadata.VideoURL, c.VideoURL, c.ImageURL, c.URL)
}

func secondsToTimecode(sec float64, fps int) string {
	totalFrames := int(math.Round(sec * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
