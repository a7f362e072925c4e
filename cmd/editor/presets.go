package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/boostify/editor-agent/internal/export"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Print the export preset tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writePresets(cmd.OutOrStdout())
	},
}

var estimateFlags struct {
	format      string
	resolution  string
	aspectRatio string
	quality     string
	duration    float64
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Show the effective resolution and estimated file size of an export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeEstimate(cmd.OutOrStdout(), export.Settings{
			Format:      estimateFlags.format,
			Resolution:  estimateFlags.resolution,
			AspectRatio: estimateFlags.aspectRatio,
			Quality:     estimateFlags.quality,
		}, estimateFlags.duration)
	},
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&estimateFlags.format, "format", export.DefaultFormat, "output format (mp4, webm, mov, gif)")
	f.StringVar(&estimateFlags.resolution, "resolution", export.DefaultResolution, "resolution preset (4k, 1080p, 720p, 480p)")
	f.StringVar(&estimateFlags.aspectRatio, "aspect-ratio", export.DefaultAspectRatio, "aspect ratio (16:9, 9:16, 1:1, 4:3, 4:5, 21:9)")
	f.StringVar(&estimateFlags.quality, "quality", export.DefaultQuality, "quality preset (draft, standard, high, ultra)")
	f.Float64Var(&estimateFlags.duration, "duration", 30, "timeline duration in seconds")
}

func writePresets(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "FORMAT\tEXTENSION\tMIME\tDESCRIPTION")
	for _, f := range export.Formats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Extension, f.MIMEType, f.Description)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "RESOLUTION\tLABEL\tSIZE")
	for _, r := range export.Resolutions {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\n", r.ID, r.Label, r.Width, r.Height)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ASPECT RATIO\tLABEL\tRATIO")
	for _, a := range export.AspectRatios {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\n", a.ID, a.Label, a.Ratio())
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "QUALITY\tLABEL\tBITRATE\tFPS")
	for _, q := range export.Qualities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", q.ID, q.Label, humanize.SIWithDigits(float64(q.Bitrate)*1e6, 0, "bps"), q.FPS)
	}

	return tw.Flush()
}

func writeEstimate(out io.Writer, s export.Settings, duration float64) error {
	cfg, err := export.NewJobConfig(s.WithDefaults(""), duration)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Format:\t%s (%s)\n", cfg.Format.Label, cfg.Format.Description)
	fmt.Fprintf(tw, "Resolution:\t%dx%d (%s, %s)\n", cfg.Width, cfg.Height, cfg.Resolution.ID, cfg.AspectRatio.ID)
	fmt.Fprintf(tw, "Quality:\t%s, %s at %d fps\n", cfg.Quality.Label, humanize.SIWithDigits(float64(cfg.Quality.Bitrate)*1e6, 0, "bps"), cfg.Quality.FPS)
	fmt.Fprintf(tw, "Duration:\t%gs\n", cfg.DurationSeconds)
	fmt.Fprintf(tw, "Estimated size:\t%s (%s)\n", cfg.EstimatedSize, humanize.Bytes(uint64(cfg.EstimatedBytes)))
	return tw.Flush()
}
