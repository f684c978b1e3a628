package parser

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// Stats summarizes a batch parse.
type Stats struct {
	Candidates int `json:"candidates"`
	Parsed     int `json:"parsed"`
	Discarded  int `json:"discarded"`
	Failed     int `json:"failed"`
}

// SuccessRate is the share of candidate lines that became transactions.
func (s Stats) SuccessRate() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return float64(s.Parsed) / float64(s.Candidates)
}

// Batch is the result of parsing many lines.
type Batch struct {
	Transactions []model.Transaction `json:"transactions"`
	Stats        Stats               `json:"stats"`
}

// BatchOption configures ParseLines.
type BatchOption func(*batchConfig)

type batchConfig struct {
	progress func()
}

// WithProgress calls fn after every line.
func WithProgress(fn func()) BatchOption {
	return func(c *batchConfig) {
		c.progress = fn
	}
}

// ParseLines parses every line in order. A line that panics is logged and
// counted as failed; the rest of the batch continues.
func ParseLines(p Parser, lines []string, opts ...BatchOption) Batch {
	cfg := batchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	batch := Batch{Transactions: make([]model.Transaction, 0, len(lines))}
	for i, line := range lines {
		batch.Stats.Candidates++
		txn, ok, err := parseLineSafely(p, line)
		switch {
		case err != nil:
			batch.Stats.Failed++
			common.LogError(err, "Failed to parse line", common.Fields{
				"format": p.Format().Name,
				"line":   i + 1,
			})
		case ok:
			batch.Stats.Parsed++
			batch.Transactions = append(batch.Transactions, txn)
		default:
			batch.Stats.Discarded++
			slog.Debug("Line discarded", "format", p.Format().Name, "line", i+1, "text", line)
		}
		if cfg.progress != nil {
			cfg.progress()
		}
	}
	return batch
}

func parseLineSafely(p Parser, line string) (txn model.Transaction, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", common.ErrLineParse, r)
			ok = false
		}
	}()
	txn, ok = p.ParseLine(line)
	return txn, ok, nil
}
