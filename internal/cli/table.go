package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// RenderTable writes an aligned plain-text table. Cells must not carry
// ANSI styling or the columns drift.
func RenderTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("failed to write table row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderTransactions writes one row per transaction.
func RenderTransactions(w io.Writer, txns []model.Transaction) error {
	rows := make([][]string, 0, len(txns))
	for _, txn := range txns {
		category := txn.Category
		if category != "" {
			category = fmt.Sprintf("%s (%d)", category, txn.CategoryConfidence)
		}
		rows = append(rows, []string{
			txn.ISODate(),
			truncate(txn.Description, 40),
			FormatAmount(txn.Amount),
			string(txn.Type),
			category,
		})
	}
	return RenderTable(w, []string{"DATE", "DESCRIPTION", "AMOUNT", "TYPE", "CATEGORY"}, rows)
}

// FormatAmount renders whole pesos with dot thousands separators.
func FormatAmount(amount int64) string {
	if amount < 0 {
		return "-$" + strings.TrimPrefix(common.FormatThousands(amount), "-")
	}
	return "$" + common.FormatThousands(amount)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
