package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-audit/internal/audit"
)

var (
	auditKeyword  string
	auditLanguage string
	auditFallback string
)

var auditCmd = &cobra.Command{
	Use:   "audit <maps-url>",
	Short: "Generate one visibility report and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "audit")
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Pipeline.Generate(ctx, audit.Request{
			URL:          args[0],
			FallbackText: auditFallback,
			Keyword:      auditKeyword,
			Language:     auditLanguage,
		})
		if err != nil {
			return eris.Wrap(err, "generate report")
		}

		zap.L().Info("audit complete",
			zap.String("report_id", report.ID),
			zap.Int("overall_score", report.Score.OverallScore),
			zap.Bool("cached", report.Cached),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditKeyword, "keyword", "", "search keyword (default derived from the business profile)")
	auditCmd.Flags().StringVar(&auditLanguage, "language", "", "report language tag, e.g. pt-BR")
	auditCmd.Flags().StringVar(&auditFallback, "fallback", "", "fallback search text when the URL is not parseable")
	rootCmd.AddCommand(auditCmd)
}
