package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"smpctl/core/audio"
)

var probeJSON bool

var probeCmd = &cobra.Command{
	Use:   "probe <file...>",
	Short: "Print format, length and channel layout of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := audio.DefaultRegistry()
		out := cmd.OutOrStdout()

		failed := 0
		results := make(map[string]*audio.Info, len(args))
		for _, path := range args {
			info, err := reg.ProbeFile(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				continue
			}
			if probeJSON {
				results[path] = info
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", path, info)
		}

		if probeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be probed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "print results as JSON")
}
