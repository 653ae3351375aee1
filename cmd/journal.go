package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"smpctl/db"
	"smpctl/model"
	"smpctl/repository"
)

var (
	journalLimit    int
	journalSession  string
	journalName     string
	journalJSON     bool
	journalSessions bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print recent journal entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.InitJournal(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		repo := repository.NewGormJournalRepository(db.GormDB)
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if journalSessions {
			sessions, err := repo.RecentSessions(ctx, journalLimit)
			if err != nil {
				return err
			}
			if journalJSON {
				return json.NewEncoder(out).Encode(sessions)
			}
			printSessions(cmd, sessions)
			return nil
		}

		records, err := repo.Recent(ctx, repository.JournalQuery{
			SessionID: journalSession,
			Name:      journalName,
			Limit:     journalLimit,
		})
		if err != nil {
			return err
		}
		if journalJSON {
			return json.NewEncoder(out).Encode(records)
		}
		printRecords(cmd, records)
		return nil
	},
}

func printRecords(cmd *cobra.Command, records []*model.CommandRecord) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSESSION\tCOMMAND\tSTATUS\tDURATION\tRESPONSE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			shortID(r.SessionID),
			r.Name,
			r.Status,
			time.Duration(r.DurationUs)*time.Microsecond,
			truncate(r.Response, 60))
	}
	tw.Flush()
}

func printSessions(cmd *cobra.Command, sessions []*model.Session) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tORIGIN\tHOST\tSTARTED\tENDED")
	for _, s := range sessions {
		ended := "-"
		if s.EndedAt != nil {
			ended = s.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Origin, s.Host, s.StartedAt.Format("2006-01-02 15:04:05"), ended)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", repository.DefaultJournalLimit, "number of entries")
	journalCmd.Flags().StringVar(&journalSession, "session", "", "only this session")
	journalCmd.Flags().StringVar(&journalName, "name", "", "only this command name")
	journalCmd.Flags().BoolVar(&journalJSON, "json", false, "print JSON")
	journalCmd.Flags().BoolVar(&journalSessions, "sessions", false, "list sessions instead of commands")
}
