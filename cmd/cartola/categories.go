package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/common"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect the category taxonomy",
		Long: `Categories come from the built-in taxonomy, or from the YAML file named by
categories.file in the configuration.`,
	}
	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesShowCmd())
	return cmd
}

func categoriesListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in classification order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, s.taxonomy.Categories())
			}

			rows := [][]string{}
			for _, def := range s.taxonomy.Categories() {
				color, icon := def.Presentation()
				rows = append(rows, []string{
					strings.TrimSpace(icon + " " + cli.FormatCategory(def.Name, color)),
					fmt.Sprintf("%d", len(def.Keywords)),
					fmt.Sprintf("%d", len(def.Examples)),
					def.Description,
				})
			}
			return cli.RenderTable(w, []string{"CATEGORY", "KEYWORDS", "EXAMPLES", "DESCRIPTION"}, rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the taxonomy as JSON")
	return cmd
}

func categoriesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <category>",
		Short: "Show a category's keywords and examples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			def, ok := s.taxonomy.Lookup(args[0])
			if !ok {
				return common.NewUserError(fmt.Sprintf("unknown category %q", args[0]), common.ErrInvalidCategory)
			}

			w := cmd.OutOrStdout()
			color, icon := def.Presentation()
			printf(w, "%s %s\n", icon, cli.FormatCategory(def.Name, color))
			if def.Description != "" {
				printf(w, "%s\n", cli.SubtleStyle.Render(def.Description))
			}
			printf(w, "\nKeywords: %s\n", strings.Join(def.Keywords, ", "))
			printf(w, "Examples: %s\n", strings.Join(def.Examples, ", "))
			return nil
		},
	}
}
