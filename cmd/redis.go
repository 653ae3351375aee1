package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smpctl/cache"
	"smpctl/db"
)

var redisSession string

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long: `Checks the Redis connection with a write/read/delete round trip. With
--session, also prints the last status of every command of that session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer db.CloseRedis()
		fmt.Fprintln(out, "connected")

		if err := db.TestRedis(); err != nil {
			return fmt.Errorf("redis round trip failed: %w", err)
		}
		fmt.Fprintln(out, "round trip ok")

		if redisSession == "" {
			return nil
		}
		status, err := cache.LastStatus(cmd.Context(), db.RedisClient, redisSession)
		if err != nil {
			return err
		}
		if len(status) == 0 {
			fmt.Fprintf(out, "no status stored for session %s\n", redisSession)
			return nil
		}
		for name, ev := range status {
			fmt.Fprintf(out, "%-20s %-6t %s\n", name, ev.OK, ev.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
	redisCmd.Flags().StringVar(&redisSession, "session", "", "print the last command status of this session")
}
