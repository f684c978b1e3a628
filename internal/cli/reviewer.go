package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/cartola/internal/model"
)

// Decision is a reviewed transaction and the pattern → category the user
// wants learned from it.
type Decision struct {
	Transaction model.Transaction
	Category    string
	Pattern     string
}

// ReviewStats counts review outcomes.
type ReviewStats struct {
	Reviewed int
	Accepted int
	Changed  int
	Skipped  int
}

// Reviewer walks the user through low-confidence classifications.
type Reviewer struct {
	writer     io.Writer
	reader     *LineReader
	categories []string
	stats      ReviewStats
}

// NewReviewer returns a reviewer offering categories as choices.
func NewReviewer(reader io.Reader, writer io.Writer, categories []string) *Reviewer {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Reviewer{
		reader:     NewLineReader(reader),
		writer:     writer,
		categories: categories,
	}
}

var errQuit = errors.New("review stopped")

// ReviewAll reviews txns in order until the input ends or the user quits.
func (r *Reviewer) ReviewAll(ctx context.Context, txns []model.Transaction) ([]Decision, error) {
	var decisions []Decision
	for i, txn := range txns {
		r.printf("%s\n", SubtleStyle.Render(fmt.Sprintf("[%d/%d]", i+1, len(txns))))
		decision, ok, err := r.Review(ctx, txn)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			return decisions, err
		}
		if ok {
			decisions = append(decisions, decision)
		}
	}
	return decisions, nil
}

// Review asks for one transaction's category. It returns false when the
// user skips it.
func (r *Reviewer) Review(ctx context.Context, txn model.Transaction) (Decision, bool, error) {
	if _, err := fmt.Fprintln(r.writer, RenderBox("Transaction", r.formatTransaction(txn))); err != nil {
		return Decision{}, false, fmt.Errorf("failed to write transaction box: %w", err)
	}

	r.printf("%s\n", FormatPrompt("Category options:"))
	if txn.Category != "" {
		r.printf("  [A] Keep %s\n", SuccessStyle.Render(txn.Category))
	}
	for i, name := range r.categories {
		r.printf("  [%d] %s\n", i+1, name)
	}
	r.printf("  [S] Skip\n  [Q] Quit\n\n")

	category, err := r.promptCategory(ctx, txn)
	if err != nil {
		return Decision{}, false, err
	}
	r.stats.Reviewed++
	if category == "" {
		r.stats.Skipped++
		return Decision{}, false, nil
	}
	if category == txn.Category {
		r.stats.Accepted++
	} else {
		r.stats.Changed++
	}

	pattern, err := r.promptPattern(ctx, defaultPattern(txn.Description))
	if err != nil {
		return Decision{}, false, err
	}
	return Decision{Transaction: txn, Category: category, Pattern: pattern}, true, nil
}

// Stats returns the outcome counters so far.
func (r *Reviewer) Stats() ReviewStats {
	return r.stats
}

func (r *Reviewer) promptCategory(ctx context.Context, txn model.Transaction) (string, error) {
	for {
		r.printf("%s", FormatPrompt("Choice"))
		input, err := r.readLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		switch {
		case choice == "q":
			return "", errQuit
		case choice == "s":
			return "", nil
		case choice == "a" && txn.Category != "":
			return txn.Category, nil
		}
		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(r.categories) {
			return r.categories[n-1], nil
		}

		if _, err := fmt.Fprintln(r.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (r *Reviewer) promptPattern(ctx context.Context, fallback string) (string, error) {
	r.printf("%s", FormatPrompt(fmt.Sprintf("Pattern to learn [%s]", fallback)))
	input, err := r.readLine(ctx)
	if err != nil {
		return "", err
	}
	if input == "" {
		return fallback, nil
	}
	return strings.ToLower(input), nil
}

func (r *Reviewer) readLine(ctx context.Context) (string, error) {
	input, err := r.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("input terminated: %w", err)
	}
	return input, err
}

func (r *Reviewer) formatTransaction(txn model.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", BoldStyle.Render("Date:"), txn.ISODate())
	fmt.Fprintf(&b, "%s  %s\n", BoldStyle.Render("Description:"), txn.Description)
	fmt.Fprintf(&b, "%s  %s", BoldStyle.Render("Amount:"), FormatAmount(txn.Amount))
	if txn.Category != "" {
		fmt.Fprintf(&b, "\n%s  %s (%d%%)", BoldStyle.Render("Category:"),
			FormatCategory(txn.Category, txn.CategoryColor), txn.CategoryConfidence)
		if txn.CategoryReason != "" {
			fmt.Fprintf(&b, "\n%s", SubtleStyle.Render(txn.CategoryReason))
		}
	}
	return b.String()
}

func (r *Reviewer) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(r.writer, format, args...); err != nil {
		slog.Warn("Failed to write review output", "error", err)
	}
}

// defaultPattern proposes the leading words of a description as pattern.
func defaultPattern(description string) string {
	words := strings.Fields(strings.ToLower(description))
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}
