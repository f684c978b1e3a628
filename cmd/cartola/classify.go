package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/engine"
)

func classifyCmd() *cobra.Command {
	var (
		amount int64
		bank   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Classify a single transaction description",
		Long: `Run one description through the classification cascade and explain the
result. With --bank the bank's correction rules are applied first.`,
		Example: `  cartola classify "COLMENA GOLDEN CROSS"
  cartola classify --amount -35000 "Estacion Aramco Los Leones"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			c := engine.Wire(s.store, s.taxonomy)
			description := strings.Join(args, " ")
			if bank != "" {
				description = c.Corrector.Apply(description, bank).Corrected
			}

			var amountPtr *int64
			if cmd.Flags().Changed("amount") {
				amountPtr = &amount
			}
			result := c.Classifier.Classify(description, amountPtr)

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, map[string]any{"description": description, "classification": result})
			}

			color := ""
			if def, ok := s.taxonomy.Lookup(result.Category); ok {
				color, _ = def.Presentation()
			}
			printf(w, "%s\n", description)
			printf(w, "  Category:   %s\n", cli.FormatCategory(result.Category, color))
			printf(w, "  Confidence: %d%%\n", result.Confidence)
			printf(w, "  Stage:      %s\n", result.Stage)
			printf(w, "  Reason:     %s\n", result.Reason)
			return nil
		},
	}
	cmd.Flags().Int64Var(&amount, "amount", 0, "signed amount in pesos (negative for charges)")
	cmd.Flags().StringVar(&bank, "bank", "", fmt.Sprintf("apply this bank's corrections first (%s)", strings.Join(knownBanks(), ", ")))
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
