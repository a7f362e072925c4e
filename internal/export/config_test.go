package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_WithDefaults(t *testing.T) {
	got := Settings{}.WithDefaults("")
	assert.Equal(t, Settings{Format: "mp4", Resolution: "1080p", AspectRatio: "16:9", Quality: "high"}, got)

	got = Settings{Quality: "draft"}.WithDefaults("9:16")
	assert.Equal(t, "9:16", got.AspectRatio)
	assert.Equal(t, "draft", got.Quality)

	got = Settings{AspectRatio: "1:1"}.WithDefaults("9:16")
	assert.Equal(t, "1:1", got.AspectRatio)
}

func TestNewJobConfig(t *testing.T) {
	cfg, err := NewJobConfig(Settings{Format: "webm", Resolution: "1080p", AspectRatio: "9:16", Quality: "standard"}, 60)
	require.NoError(t, err)

	assert.Equal(t, "webm", cfg.Format.ID)
	assert.Equal(t, ".webm", cfg.Format.Extension)
	assert.Equal(t, "video/webm", cfg.Format.MIMEType)
	assert.Equal(t, 608, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
	assert.Equal(t, 8, cfg.Quality.Bitrate)
	assert.Equal(t, 30, cfg.Quality.FPS)
	assert.Equal(t, int64(60_000_000), cfg.EstimatedBytes)
	assert.Equal(t, "~60 MB", cfg.EstimatedSize)
	assert.Equal(t, Settings{Format: "webm", Resolution: "1080p", AspectRatio: "9:16", Quality: "standard"}, cfg.Settings())
}

func TestNewJobConfig_Defaults(t *testing.T) {
	cfg, err := NewJobConfig(Settings{}, 10)
	require.NoError(t, err)

	assert.Equal(t, "mp4", cfg.Format.ID)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
	assert.Equal(t, "high", cfg.Quality.ID)
}

func TestNewJobConfig_UnknownPreset(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"format", Settings{Format: "avi"}},
		{"resolution", Settings{Resolution: "8k"}},
		{"aspect ratio", Settings{AspectRatio: "3:2"}},
		{"quality", Settings{Quality: "lossless"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobConfig(tt.settings, 10)
			assert.ErrorIs(t, err, ErrUnknownPreset)
		})
	}
}

func TestNewJobConfig_NegativeDuration(t *testing.T) {
	_, err := NewJobConfig(Settings{}, -1)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
