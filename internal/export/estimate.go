package export

import (
	"fmt"
	"math"
)

// EffectiveResolution derives output dimensions from a resolution preset and
// an aspect ratio. The preset's width is kept for landscape and square ratios,
// its height for portrait ones; the other side is rounded half up.
func EffectiveResolution(res Resolution, ar AspectRatio) (width, height int) {
	if !ar.Portrait() {
		return res.Width, divRoundHalfUp(res.Width*ar.Height, ar.Width)
	}
	return divRoundHalfUp(res.Height*ar.Width, ar.Height), res.Height
}

func divRoundHalfUp(num, den int) int {
	return (2*num + den) / (2 * den)
}

// EstimateFileSize is a rough output size in bytes for a constant bitrate
// stream. Real encoders will land above or below it.
func EstimateFileSize(bitrateMbps, seconds float64) int64 {
	if bitrateMbps <= 0 || seconds <= 0 {
		return 0
	}
	return int64(math.Round(bitrateMbps * 1e6 / 8 * seconds))
}

// FormatFileSize renders an estimate as "~X.Y GB" above one gigabyte and
// "~X MB" otherwise.
func FormatFileSize(bytes int64) string {
	if bytes > 1e9 {
		return fmt.Sprintf("~%.1f GB", math.Round(float64(bytes)/1e8)/10)
	}
	return fmt.Sprintf("~%d MB", int64(math.Round(float64(bytes)/1e6)))
}
