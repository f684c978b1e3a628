package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/classification"
	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/model"
)

func reviewCmd() *cobra.Command {
	var (
		format    string
		threshold int
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "review <statement>",
		Short: "Review uncertain classifications and learn from them",
		Long: `Parse a statement and walk through the transactions classified below the
confidence threshold. Every category you confirm or choose is learned as a
pattern, so the next statement classifies the same merchant directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := processStatement(ctx, s, args[0], format, false)
			if err != nil {
				return err
			}

			var pending []model.Transaction
			for _, txn := range result.Transactions {
				if all || txn.CategoryConfidence < threshold {
					pending = append(pending, txn)
				}
			}

			w := cmd.OutOrStdout()
			if len(pending) == 0 {
				printf(w, "%s\n", cli.FormatSuccess("Nothing to review"))
				return nil
			}
			printf(w, "%s\n\n", cli.FormatInfo(fmt.Sprintf("%d of %d transactions to review", len(pending), len(result.Transactions))))

			reviewer := cli.NewReviewer(cmd.InOrStdin(), w, s.taxonomy.Names())
			decisions, reviewErr := reviewer.ReviewAll(ctx, pending)

			// Decisions made before an interrupt are still learned.
			learnCtx := context.WithoutCancel(ctx)
			classifier := classification.New(s.store, s.taxonomy)
			learned := 0
			for _, d := range decisions {
				if _, err := classifier.Learn(learnCtx, d.Pattern, d.Category); err != nil {
					slog.Warn("Failed to learn pattern", "pattern", d.Pattern, "category", d.Category, "error", err)
					continue
				}
				learned++
			}

			stats := reviewer.Stats()
			printf(w, "\n%s\n", cli.FormatTitle("Review complete"))
			printf(w, "  Reviewed: %d\n  Accepted: %d\n  Changed:  %d\n  Skipped:  %d\n  Learned:  %d\n",
				stats.Reviewed, stats.Accepted, stats.Changed, stats.Skipped, learned)
			return reviewErr
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "skip detection and use this format")
	cmd.Flags().IntVar(&threshold, "threshold", 60, "review transactions classified below this confidence")
	cmd.Flags().BoolVar(&all, "all", false, "review every transaction")
	return cmd
}
