package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/classification"
	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/common"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage learned classification patterns",
		Long: `Learned patterns map a description fragment to a category. They are
checked before any other classification signal, in the order they were
learned.`,
	}
	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsLearnCmd())
	return cmd
}

func patternsListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, s *session) error {
				w := cmd.OutOrStdout()
				patterns := s.store.LearnedPatterns()
				if asJSON {
					return writeJSON(w, patterns)
				}
				if len(patterns) == 0 {
					printf(w, "%s\n", cli.FormatInfo("No learned patterns"))
					return nil
				}

				rows := make([][]string, 0, len(patterns))
				for _, p := range patterns {
					color := ""
					if def, ok := s.taxonomy.Lookup(p.Category); ok {
						color, _ = def.Presentation()
					}
					rows = append(rows, []string{p.Pattern, cli.FormatCategory(p.Category, color), p.Source, p.Timestamp.Local().Format(time.DateOnly)})
				}
				return cli.RenderTable(w, []string{"PATTERN", "CATEGORY", "SOURCE", "LEARNED"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print patterns as JSON")
	return cmd
}

func patternsLearnCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "learn <pattern> <category>",
		Short:   "Teach the classifier a pattern",
		Example: `  cartola patterns learn "mercadopago" "Compras"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				classifier := classification.New(s.store, s.taxonomy)
				learned, err := classifier.Learn(ctx, args[0], args[1])
				if err != nil {
					return common.NewUserError(fmt.Sprintf("cannot learn %q", args[0]), err)
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess(fmt.Sprintf("%q → %s", learned.Pattern, learned.Category)))
				return nil
			})
		},
	}
}
