package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"smpctl/core/sequence"
)

var (
	demoDriver   string
	demoFile     string
	demoPollWait bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the fixed demo sequence",
	Long: `Loads the engine, lists drivers, initializes a driver, shows the
mixer, loads a wave file, plays it to the end and exits, printing every
response on its own line. Command failures do not stop the sequence.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		s, err := openEngine(cmd.Context(), "cli")
		if err != nil {
			return reportLoadError(out, err)
		}

		driver, file := cfg.Driver, cfg.WaveFile
		if cmd.Flags().Changed("driver") {
			driver = demoDriver
		}
		if cmd.Flags().Changed("file") {
			file = demoFile
		}

		steps := sequence.DemoSteps(driver, file)
		if demoPollWait {
			for i, step := range steps {
				if step.Raw == "command=wait" {
					steps[i] = sequence.Step{
						Name: "wait (polling)",
						Run: func(ctx context.Context) error {
							return s.client.WaitIdle(ctx, 0)
						},
					}
				}
			}
		}

		runner := &sequence.Runner{Client: s.client, Out: out}
		_, runErr := runner.Run(cmd.Context(), sequence.Script{Name: "demo", Steps: steps})

		if err := s.Close(); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		fmt.Fprint(out, "\nDONE\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoDriver, "driver", "", "driver index or name (overrides SMP_DRIVER)")
	demoCmd.Flags().StringVar(&demoFile, "file", "", "wave file to play (overrides SMP_WAVE_FILE)")
	demoCmd.Flags().BoolVar(&demoPollWait, "poll-wait", false, "poll the playing state instead of the blocking wait command")
}
