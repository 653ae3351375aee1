package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smpctl/logger"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List audio drivers and their channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		drivers, err := s.client.Drivers(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, name := range drivers {
			fmt.Fprintf(out, "%d: %s\n", i, name)
			channels, err := s.client.Channels(ctx, name)
			if err != nil {
				logger.Debug("no channel list", logger.String("driver", name), logger.ErrorField(err))
				fmt.Fprintln(out, "   channels unavailable")
				continue
			}
			fmt.Fprintf(out, "   out: %s\n", strings.Join(channels.Output, ", "))
			fmt.Fprintf(out, "   in:  %s\n", strings.Join(channels.Input, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
}
