package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smpctl/storage"
)

var (
	minioSession string
	minioStats   bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "List archived recordings",
	Example: `  # all recordings
  smpctl minio

  # one session, with totals
  smpctl minio --session 0b7c... -s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			return err
		}

		objects, stats, err := storage.Recordings().ListRecordings(cmd.Context(), minioSession)
		if err != nil {
			return err
		}

		for _, obj := range objects {
			fmt.Fprintf(out, "%s  %10s  %s\n",
				obj.LastModified.Format("2006-01-02 15:04:05"),
				storage.FormatSize(obj.Size),
				obj.Key)
		}

		if minioStats {
			fmt.Fprintf(out, "\n%d recordings, %s", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
			if !stats.LastModified.IsZero() {
				fmt.Fprintf(out, ", last at %s", stats.LastModified.Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().StringVar(&minioSession, "session", "", "only recordings of this session")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "print totals")
}
