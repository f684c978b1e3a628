package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/engine"
	"github.com/Veraticus/cartola/internal/extractor"
)

type parseOptions struct {
	format     string
	asJSON     bool
	noProgress bool
	noSummary  bool
}

func parseCmd() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse <statement>",
		Short: "Extract and classify the transactions of a statement",
		Long: `Read a statement (PDF or extracted text), detect its bank and product,
parse every transaction line and assign categories.

Rule usage counters are saved once the statement has been processed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "skip detection and use this format (e.g. falabella-credit)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "do not show a progress bar")
	cmd.Flags().BoolVar(&opts.noSummary, "no-summary", false, "do not print per-category totals")

	return cmd
}

func runParse(ctx context.Context, w io.Writer, path string, opts parseOptions) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := processStatement(ctx, s, path, opts.format, !opts.noProgress && !opts.asJSON)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx); err != nil {
		slog.Warn("Failed to save rule usage", "error", err)
	}

	if opts.asJSON {
		return writeJSON(w, result)
	}

	printf(w, "%s\n", cli.FormatTitle(filepath.Base(path)))
	printf(w, "%s\n\n", cli.FormatInfo(fmt.Sprintf("Format %s (%d%% confidence), %d of %d lines parsed",
		result.Format.Name, result.Confidence, result.Stats.Parsed, result.Stats.Candidates)))

	if err := cli.RenderTransactions(w, result.Transactions); err != nil {
		return fmt.Errorf("failed to render transactions: %w", err)
	}

	if !opts.noSummary && len(result.Transactions) > 0 {
		printf(w, "\n")
		if err := renderSummary(w, result.Summary()); err != nil {
			return err
		}
	}

	if result.Stats.Failed > 0 {
		printf(w, "\n%s\n", cli.FormatWarning(fmt.Sprintf("%d lines could not be parsed", result.Stats.Failed)))
	}
	return nil
}

// processStatement reads path and runs it through an engine wired over the
// session's rules.
func processStatement(ctx context.Context, s *session, path, format string, progress bool) (*engine.Result, error) {
	doc, err := extractor.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	slog.Debug("Statement read", "path", path, "pages", doc.Pages, "bytes", len(doc.Text))

	var opts []engine.Option
	if format != "" {
		opts = append(opts, engine.WithFormat(format))
	}
	if progress {
		opts = append(opts, engine.WithProgress(func(total int) func() {
			_, tick := cli.NewProgress(os.Stderr, total, "Parsing lines")
			return tick
		}))
	}

	e := engine.NewFromStore(s.store, s.taxonomy, nil, opts...)
	return e.Process(ctx, engine.Document{Text: doc.Text})
}

func renderSummary(w io.Writer, totals []engine.CategoryTotal) error {
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			strings.TrimSpace(t.Icon + " " + cli.FormatCategory(t.Category, t.Color)),
			fmt.Sprintf("%d", t.Count),
			cli.FormatAmount(t.Total),
		})
	}
	if err := cli.RenderTable(w, []string{"CATEGORY", "COUNT", "TOTAL"}, rows); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}
