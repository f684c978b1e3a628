// Package engine runs the statement pipeline: pick the layout, parse the
// candidate lines and classify the resulting transactions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/extractor"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/parser"
)

// Classifier annotates parsed transactions. *classification.Classifier
// satisfies it.
type Classifier interface {
	ClassifyBatch(txns []model.Transaction) []model.Transaction
}

// Document is the input to Process. When Lines is empty the candidate
// lines are derived from Text.
type Document struct {
	Text  string
	Lines []string
}

// Result is the output of one Process call.
type Result struct {
	Format       parser.FormatInfo   `json:"format"`
	Transactions []model.Transaction `json:"transactions"`
	Scores       []parser.Score      `json:"scores,omitempty"`
	Stats        parser.Stats        `json:"stats"`
	Confidence   int                 `json:"confidence"`
}

// Engine is stateless between calls; all mutable state lives in the rule
// store behind its parsers and classifier.
type Engine struct {
	classifier Classifier
	selector   *parser.Selector
	progress   func(total int) func()
	format     string
	parsers    []parser.Parser
}

// Option configures an Engine.
type Option func(*Engine)

// WithFormat skips detection and always uses the named layout.
func WithFormat(name string) Option {
	return func(e *Engine) {
		e.format = formatKey(name)
	}
}

// WithProgress is called with the number of candidate lines before parsing
// starts and returns the per-line tick.
func WithProgress(start func(total int) func()) Option {
	return func(e *Engine) {
		e.progress = start
	}
}

// New returns an engine over parsers in selection order.
func New(parsers []parser.Parser, classifier Classifier, opts ...Option) *Engine {
	e := &Engine{
		classifier: classifier,
		selector:   parser.NewSelector(parsers...),
		parsers:    parsers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detect scores every layout against text and returns the chosen one.
func (e *Engine) Detect(text string) (parser.Selection, []parser.Score, error) {
	scores := e.selector.Scores(text)
	if e.format != "" {
		p, ok := parser.ByName(e.parsers, e.format)
		if !ok {
			return parser.Selection{}, scores, common.NewUserError(
				fmt.Sprintf("unknown statement format %q", e.format),
				common.ErrFormatNotRecognized)
		}
		return parser.Selection{Parser: p, FormatName: e.format, Confidence: p.CanParse(text)}, scores, nil
	}

	selection, err := e.selector.Select(text)
	if err != nil {
		return parser.Selection{}, scores, common.NewUserError("unsupported statement format", err)
	}
	return selection, scores, nil
}

// Process extracts and classifies the transactions of doc.
func (e *Engine) Process(ctx context.Context, doc Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selection, scores, err := e.Detect(doc.Text)
	if err != nil {
		return nil, err
	}

	lines := doc.Lines
	if len(lines) == 0 {
		lines = extractor.CandidateLines(doc.Text)
	}

	slog.Info("Parsing statement",
		"format", selection.FormatName,
		"confidence", selection.Confidence,
		"lines", len(lines))

	var batchOpts []parser.BatchOption
	if e.progress != nil {
		batchOpts = append(batchOpts, parser.WithProgress(e.progress(len(lines))))
	}
	batch := parser.ParseLines(selection.Parser, lines, batchOpts...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txns := batch.Transactions
	if e.classifier != nil {
		txns = e.classifier.ClassifyBatch(txns)
	}

	slog.Info("Statement processed",
		"format", selection.FormatName,
		"parsed", batch.Stats.Parsed,
		"discarded", batch.Stats.Discarded,
		"failed", batch.Stats.Failed,
		"success_rate", fmt.Sprintf("%.1f%%", batch.Stats.SuccessRate()*100))

	return &Result{
		Format:       selection.Parser.Format(),
		Confidence:   selection.Confidence,
		Transactions: txns,
		Stats:        batch.Stats,
		Scores:       scores,
	}, nil
}

// formatKey lowercases a user supplied format name.
func formatKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
