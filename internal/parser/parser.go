// Package parser turns statement text lines into transactions. Each
// supported bank/product layout is one Parser; a Selector picks the right
// one for a document.
package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/cartola/internal/correction"
	"github.com/Veraticus/cartola/internal/filter"
	"github.com/Veraticus/cartola/internal/model"
)

// Parser reads one statement layout.
type Parser interface {
	// ParseLine returns the transaction on line, or false when the line is
	// filtered out or cannot be reduced to a valid transaction.
	ParseLine(line string) (model.Transaction, bool)
	// CanParse scores how likely fullText is a document of this layout, 0-100.
	CanParse(fullText string) int
	// Format describes the layout.
	Format() FormatInfo
}

// FormatInfo describes a statement layout.
type FormatInfo struct {
	Name          string `json:"name"`
	Bank          string `json:"bank"`
	Product       string `json:"product"`
	DateLayout    string `json:"dateLayout"`
	MinConfidence int    `json:"minConfidence"`
}

// Products.
const (
	ProductCreditCard = "credit-card"
	ProductChecking   = "checking"
)

// Skipper decides whether a line is noise. *filter.Engine satisfies it.
type Skipper interface {
	ShouldSkip(line, bank string) filter.Decision
}

// Corrector rewrites descriptions. *correction.Corrector satisfies it.
type Corrector interface {
	Apply(description, bank string) correction.Result
}

// Option configures the parsers built by Registry.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used to complete dates printed without a year.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries what every layout shares: its identity, the rule-driven
// collaborators and document detection signals.
type base struct {
	skipper   Skipper
	corrector Corrector
	info      FormatInfo
	signals   []signal
}

func (b *base) Format() FormatInfo {
	return b.info
}

func (b *base) CanParse(fullText string) int {
	return score(fullText, b.signals)
}

func (b *base) skip(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	if b.skipper == nil {
		return false
	}
	return b.skipper.ShouldSkip(line, b.info.Bank).Skip
}

// correct runs the correction rules and reports whether the result is
// still a usable description.
func (b *base) correct(description string) (string, bool) {
	if b.corrector != nil {
		description = b.corrector.Apply(description, b.info.Bank).Corrected
	}
	description = strings.TrimSpace(description)
	return description, usableDescription(description)
}

// finish assembles and validates the transaction.
func (b *base) finish(line string, date time.Time, description string, amount int64, txType model.TransactionType, confidence int) (model.Transaction, bool) {
	description, ok := b.correct(description)
	if !ok {
		return model.Transaction{}, false
	}
	txn := model.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        txType,
		RawLine:     line,
		Confidence:  min(confidence, 100),
	}
	if err := txn.Validate(); err != nil {
		slog.Debug("Discarding invalid transaction", "format", b.info.Name, "line", line, "error", err)
		return model.Transaction{}, false
	}
	return txn, true
}
