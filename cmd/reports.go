package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored visibility reports",
}

var reportsListLimit int

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		summaries, err := st.ListRecentReports(ctx, reportsListLimit)
		if err != nil {
			return err
		}

		for _, s := range summaries {
			fmt.Printf("%s  %3d  %s  %s\n",
				s.CreatedAt.Format(time.RFC3339), s.OverallScore, s.ID, s.Name)
		}
		if len(summaries) == 0 {
			fmt.Println("no reports")
		}
		return nil
	},
}

var reportsGetCmd = &cobra.Command{
	Use:   "get <report-id>",
	Short: "Print one report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		report, err := st.GetReportByID(ctx, args[0])
		if err != nil {
			return err
		}
		if report == nil {
			return eris.Errorf("report %s not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var purgeOlderThanHours int

var reportsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Physically delete reports older than the given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.DeleteExpiredReports(ctx, time.Duration(purgeOlderThanHours)*time.Hour)
		if err != nil {
			return err
		}

		zap.L().Info("purge complete", zap.Int("deleted", n))
		fmt.Printf("deleted %d reports\n", n)
		return nil
	},
}

func init() {
	reportsListCmd.Flags().IntVar(&reportsListLimit, "limit", 20, "maximum reports to list")
	reportsPurgeCmd.Flags().IntVar(&purgeOlderThanHours, "older-than-hours", 24*30, "delete reports older than this many hours")
	reportsCmd.AddCommand(reportsListCmd, reportsGetCmd, reportsPurgeCmd)
	rootCmd.AddCommand(reportsCmd)
}
