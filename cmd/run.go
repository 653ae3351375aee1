package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smpctl/core/audio"
	"smpctl/core/sequence"
)

var (
	runStopOnError   bool
	runSkipPreflight bool
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Run a command script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := sequence.LoadScript(args[0])
		if err != nil {
			return err
		}

		if !runSkipPreflight {
			for _, w := range sequence.Preflight(script, audio.DefaultRegistry()) {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
		}

		s, err := openEngine(cmd.Context(), "script")
		if err != nil {
			return err
		}

		runner := &sequence.Runner{
			Client:      s.client,
			Out:         cmd.OutOrStdout(),
			StopOnError: runStopOnError,
		}
		report, runErr := runner.Run(cmd.Context(), script)
		fmt.Fprintln(cmd.OutOrStdout())

		closeErr := s.Close()
		if runErr != nil {
			return runErr
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d steps, %d failed\n", report.Executed, report.Failed)
		return closeErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runStopOnError, "stop-on-error", false, "stop at the first failed step")
	runCmd.Flags().BoolVar(&runSkipPreflight, "skip-preflight", false, "do not probe the audio files the script loads")
}
