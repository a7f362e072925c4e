// Command editor runs the Boostify timeline editor agent: a loopback JSON API
// over locally stored projects that hands finished timelines to the render
// service and follows queued renders to completion.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "editor",
	Short:         "Boostify timeline editor agent",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, presetsCmd, estimateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}
