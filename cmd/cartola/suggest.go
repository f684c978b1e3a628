package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/correction"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

func suggestCmd() *cobra.Command {
	var (
		scope string
		add   bool
	)
	cmd := &cobra.Command{
		Use:   "suggest <description>",
		Short: "Propose a cleaned up description",
		Long: `Look for common extraction artifacts in a description (repeated amounts,
duplicated phrases, trailing merchant codes) and propose a rewrite. With
--add the rewrite is stored as an exact correction rule.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			description := strings.Join(args, " ")

			suggestion := correction.Suggest(description)
			if suggestion == nil {
				printf(w, "%s\n", cli.FormatInfo("No correction suggested"))
				return nil
			}

			printf(w, "%s\n", cli.FormatTitle("Suggested correction"))
			printf(w, "  Original:   %s\n", suggestion.Original)
			printf(w, "  Suggested:  %s\n", cli.SuccessStyle.Render(suggestion.Suggested))
			printf(w, "  Reason:     %s\n", suggestion.Reason)
			printf(w, "  Confidence: %d%%\n", suggestion.Confidence)

			if !add {
				return nil
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			rule, err := s.store.AddCorrectionRule(cmd.Context(), rules.CorrectionRuleInput{
				Scope:       scope,
				Pattern:     suggestion.Original,
				Replacement: suggestion.Suggested,
				MatchType:   model.CorrectExact,
				Description: fmt.Sprintf("suggested: %s", suggestion.Kind),
			})
			if err != nil {
				return err
			}
			printf(w, "\n%s\n", cli.FormatSuccess(fmt.Sprintf("Added correction rule %s (%s)", rule.ID, rule.Scope)))
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", model.GlobalScope, "bank scope for the rule added with --add")
	cmd.Flags().BoolVar(&add, "add", false, "store the suggestion as a correction rule")
	return cmd
}
