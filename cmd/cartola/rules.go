package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

func knownBanks() []string {
	return []string{rules.BankFalabella, rules.BankSantander}
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage filter and correction rules",
		Long: `Filter rules drop statement lines that are not transactions. Correction
rules rewrite extracted descriptions. Both are scoped either globally or to
one bank, and bank rules always run after the global ones.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddFilterCmd())
	cmd.AddCommand(rulesAddCorrectionCmd())
	cmd.AddCommand(rulesUpdateCmd())
	cmd.AddCommand(rulesToggleCmd("enable", true))
	cmd.AddCommand(rulesToggleCmd("disable", false))
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesExportCmd())
	cmd.AddCommand(rulesImportCmd())
	cmd.AddCommand(rulesUsageCmd())
	return cmd
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func rulesListCmd() *cobra.Command {
	var (
		scope  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, s *session) error {
				w := cmd.OutOrStdout()
				doc := s.store.Document()
				if asJSON {
					return writeJSON(w, doc)
				}
				return renderRules(w, doc, scope)
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "only show rules in this scope (global or a bank)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the rule document as JSON")
	return cmd
}

func renderRules(w io.Writer, doc *model.RuleDocument, scope string) error {
	scope = rules.NormalizeScope(scope)
	include := func(s string) bool { return scope == "" || scope == s }

	var rows [][]string
	addFilters := func(list []model.FilterRule) {
		for _, r := range list {
			if include(r.Scope) {
				rows = append(rows, []string{shortID(r.ID), "filter", r.Scope, string(r.MatchType), r.Pattern, "", activeMark(r.Active), r.Description})
			}
		}
	}
	addCorrections := func(list []model.CorrectionRule) {
		for _, r := range list {
			if include(r.Scope) {
				rows = append(rows, []string{shortID(r.ID), "correction", r.Scope, string(r.MatchType), r.Pattern, r.Replacement, activeMark(r.Active), r.Description})
			}
		}
	}

	addFilters(doc.GlobalRules)
	for _, bank := range sortedKeys(doc.BankSpecificRules) {
		addFilters(doc.BankSpecificRules[bank])
	}
	for _, s := range sortedKeys(doc.DescriptionCorrections) {
		addCorrections(doc.DescriptionCorrections[s])
	}

	if len(rows) == 0 {
		printf(w, "%s\n", cli.FormatInfo("No rules found"))
		return nil
	}
	return cli.RenderTable(w, []string{"ID", "KIND", "SCOPE", "MATCH", "PATTERN", "REPLACEMENT", "ACTIVE", "DESCRIPTION"}, rows)
}

// sortedKeys returns the map's scopes with the global scope first.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == model.GlobalScope || keys[j] == model.GlobalScope {
			return keys[i] == model.GlobalScope && keys[j] != model.GlobalScope
		}
		return keys[i] < keys[j]
	})
	return keys
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func activeMark(active bool) string {
	if active {
		return cli.SuccessIcon
	}
	return cli.ErrorIcon
}

func rulesAddFilterCmd() *cobra.Command {
	var (
		in        rules.FilterRuleInput
		matchType string
	)
	cmd := &cobra.Command{
		Use:   "add-filter <pattern>",
		Short: "Add a filter rule",
		Example: `  cartola rules add-filter --scope santander "SALDO ANTERIOR"
  cartola rules add-filter --match regex "^\s*-{5,}\s*$"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Pattern = args[0]
			in.MatchType = model.FilterMatchType(matchType)
			return withSession(cmd, func(ctx context.Context, s *session) error {
				rule, err := s.store.AddFilterRule(ctx, in)
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess(fmt.Sprintf("Added filter rule %s (%s)", rule.ID, rule.Scope)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Scope, "scope", model.GlobalScope, "global or a bank name")
	cmd.Flags().StringVar(&matchType, "match", string(model.MatchContains), "contains, starts, ends, exact or regex")
	cmd.Flags().StringVar(&in.Description, "description", "", "why the rule exists")
	return cmd
}

func rulesAddCorrectionCmd() *cobra.Command {
	var (
		in        rules.CorrectionRuleInput
		matchType string
	)
	cmd := &cobra.Command{
		Use:   "add-correction <pattern>",
		Short: "Add a correction rule",
		Example: `  cartola rules add-correction --replacement "Mercado Pago" "MERPAGO"
  cartola rules add-correction --scope falabella --match regex --replacement "" "\s+CL$"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Pattern = args[0]
			in.MatchType = model.CorrectionMatchType(matchType)
			return withSession(cmd, func(ctx context.Context, s *session) error {
				rule, err := s.store.AddCorrectionRule(ctx, in)
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess(fmt.Sprintf("Added correction rule %s (%s)", rule.ID, rule.Scope)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Scope, "scope", model.GlobalScope, "global or a bank name")
	cmd.Flags().StringVar(&matchType, "match", string(model.CorrectWord), "word, exact, regex or cleanup")
	cmd.Flags().StringVar(&in.Replacement, "replacement", "", "replacement text")
	cmd.Flags().StringVar(&in.Description, "description", "", "why the rule exists")
	cmd.Flags().BoolVar(&in.CaseInsensitive, "ignore-case", true, "match regardless of case")
	return cmd
}

func rulesUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a rule's pattern, replacement or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := optionalString(cmd, "pattern")
			replacement := optionalString(cmd, "replacement")
			description := optionalString(cmd, "description")

			return withSession(cmd, func(ctx context.Context, s *session) error {
				id, err := resolveRuleID(s.store, args[0])
				if err != nil {
					return err
				}
				if _, ok := s.store.FindFilterRule(id); ok {
					if replacement != nil {
						return common.NewUserError("filter rules have no replacement", common.ErrInvalidRuleDefinition)
					}
					_, err = s.store.UpdateFilterRule(ctx, id, rules.FilterRuleUpdate{Pattern: pattern, Description: description})
				} else {
					_, err = s.store.UpdateCorrectionRule(ctx, id, rules.CorrectionRuleUpdate{
						Pattern:     pattern,
						Replacement: replacement,
						Description: description,
					})
				}
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess("Updated rule "+id))
				return nil
			})
		},
	}
	cmd.Flags().String("pattern", "", "new pattern")
	cmd.Flags().String("replacement", "", "new replacement (correction rules only)")
	cmd.Flags().String("description", "", "new description")
	return cmd
}

func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func rulesToggleCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				id, err := resolveRuleID(s.store, args[0])
				if err != nil {
					return err
				}
				if _, ok := s.store.FindFilterRule(id); ok {
					err = s.store.SetFilterRuleActive(ctx, id, active)
				} else {
					err = s.store.SetCorrectionRuleActive(ctx, id, active)
				}
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess(fmt.Sprintf("Rule %s %sd", id, use)))
				return nil
			})
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				id, err := resolveRuleID(s.store, args[0])
				if err != nil {
					return err
				}
				if _, ok := s.store.FindFilterRule(id); ok {
					err = s.store.DeleteFilterRule(ctx, id)
				} else {
					err = s.store.DeleteCorrectionRule(ctx, id)
				}
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess("Deleted rule "+id))
				return nil
			})
		},
	}
}

// resolveRuleID expands a unique id prefix, as printed by rules list, to the
// full rule id.
func resolveRuleID(store *rules.Store, prefix string) (string, error) {
	if _, ok := store.FindFilterRule(prefix); ok {
		return prefix, nil
	}
	if _, ok := store.FindCorrectionRule(prefix); ok {
		return prefix, nil
	}

	doc := store.Document()
	var matches []string
	check := func(id string) {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	for _, r := range doc.GlobalRules {
		check(r.ID)
	}
	for _, list := range doc.BankSpecificRules {
		for _, r := range list {
			check(r.ID)
		}
	}
	for _, list := range doc.DescriptionCorrections {
		for _, r := range list {
			check(r.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", common.NewUserError(fmt.Sprintf("no rule with id %q", prefix), common.ErrRuleNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", common.NewUserError(fmt.Sprintf("id prefix %q matches %d rules", prefix, len(matches)), common.ErrRuleNotFound)
	}
}

func rulesExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the rule document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, s *session) error {
				data, err := s.store.Export()
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				if err := os.WriteFile(output, append(data, '\n'), 0o600); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				printf(cmd.ErrOrStderr(), "%s\n", cli.FormatSuccess("Rules exported to "+output))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the rule set with an exported document",
		Long: `Replace every filter rule, correction rule and learned pattern with the
contents of an exported document. A malformed document leaves the current
rules untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) // #nosec G304 -- import path is chosen by the user
			if err != nil {
				return fmt.Errorf("failed to read rule document: %w", err)
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.Import(ctx, data); err != nil {
					return common.NewUserError("rule document rejected", err)
				}
				printf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess(fmt.Sprintf("Imported %d rules", s.store.Document().RuleCount())))
				return nil
			})
		},
	}
}

func rulesUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show how often each rule has matched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if s.db == nil {
					return common.NewUserError("rule usage is only recorded by the sqlite store", common.ErrInvalidConfig)
				}
				usage, err := s.db.RuleUsage(ctx, s.store.OrganizationID())
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if len(usage) == 0 {
					printf(w, "%s\n", cli.FormatInfo("No rule has matched yet"))
					return nil
				}

				rows := make([][]string, 0, len(usage))
				for _, u := range usage {
					rows = append(rows, []string{shortID(u.RuleID), ruleSummary(s.store, u.RuleID), fmt.Sprintf("%d", u.Count), u.LastMatchedAt.Local().Format(time.DateTime)})
				}
				return cli.RenderTable(w, []string{"ID", "RULE", "MATCHES", "LAST MATCHED"}, rows)
			})
		},
	}
}

func ruleSummary(store *rules.Store, id string) string {
	if r, ok := store.FindFilterRule(id); ok {
		return fmt.Sprintf("filter %s %q", r.MatchType, r.Pattern)
	}
	if r, ok := store.FindCorrectionRule(id); ok {
		return fmt.Sprintf("correction %q → %q", r.Pattern, r.Replacement)
	}
	return "(deleted)"
}
