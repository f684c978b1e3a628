package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/engine"
	"github.com/Veraticus/cartola/internal/extractor"
)

func detectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "detect <statement>",
		Short: "Show how well each statement format matches a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := extractor.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read statement: %w", err)
			}

			e := engine.NewFromStore(s.store, s.taxonomy, nil)
			selection, scores, detectErr := e.Detect(doc.Text)
			if detectErr != nil && !errors.Is(detectErr, common.ErrFormatNotRecognized) {
				return detectErr
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, map[string]any{"selection": selection, "scores": scores})
			}

			rows := make([][]string, 0, len(scores))
			for _, score := range scores {
				accepted := ""
				if score.Accepted {
					accepted = cli.SuccessIcon
				}
				rows = append(rows, []string{
					score.Format.Name,
					score.Format.Bank,
					score.Format.Product,
					fmt.Sprintf("%d", score.Confidence),
					fmt.Sprintf("%d", score.Format.MinConfidence),
					accepted,
				})
			}
			if err := cli.RenderTable(w, []string{"FORMAT", "BANK", "PRODUCT", "SCORE", "MIN", "OK"}, rows); err != nil {
				return fmt.Errorf("failed to render scores: %w", err)
			}

			if detectErr != nil {
				printf(w, "\n%s\n", cli.FormatWarning("No format recognized"))
				return nil
			}
			printf(w, "\n%s\n", cli.FormatSuccess(fmt.Sprintf("Selected %s (%d%%)", selection.FormatName, selection.Confidence)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the scores as JSON")
	return cmd
}
