package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smpctl/core/engine"
	"smpctl/server"
)

var (
	execRaw    bool
	execStrict bool
	execJSON   bool
)

var execCmd = &cobra.Command{
	Use:   "exec <name> [key=value...]",
	Short: "Send one command to the engine",
	Example: `  smpctl exec getdrivers
  smpctl exec init driver=0 output=0,1
  smpctl exec --raw "command=loadfile;filename=take1.wav;loopcount=0;"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command, err := buildCommand(args, execRaw)
		if err != nil {
			return err
		}

		s, err := openEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.client.Exec(cmd.Context(), command)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if execJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(server.NewCommandResponse(res)); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, res.Text)
		}

		if execStrict {
			return res.Err()
		}
		return nil
	},
}

// buildCommand turns CLI arguments into a raw wire command. Values stay
// strings; a comma already means a list on the wire.
func buildCommand(args []string, raw bool) (string, error) {
	if raw {
		if len(args) != 1 {
			return "", fmt.Errorf("--raw takes exactly one argument, got %d", len(args))
		}
		if _, err := engine.ParseCommand(args[0]); err != nil {
			return "", err
		}
		return args[0], nil
	}

	cmdArgs := make([]engine.Arg, 0, len(args)-1)
	for _, kv := range args[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return "", fmt.Errorf("argument %q is not key=value", kv)
		}
		cmdArgs = append(cmdArgs, engine.A(key, value))
	}
	return engine.NewCommand(args[0], cmdArgs...).Encode()
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().BoolVar(&execRaw, "raw", false, "send the single argument verbatim")
	execCmd.Flags().BoolVar(&execStrict, "strict", false, "exit non-zero unless the engine reports success")
	execCmd.Flags().BoolVar(&execJSON, "json", false, "print the full result as JSON")
}
