package parser

import (
	"fmt"

	"github.com/Veraticus/cartola/internal/common"
)

// Selection is the layout chosen for a document.
type Selection struct {
	Parser     Parser `json:"-"`
	FormatName string `json:"format"`
	Confidence int    `json:"confidence"`
}

// Score is one parser's detection result.
type Score struct {
	Format     FormatInfo `json:"format"`
	Confidence int        `json:"confidence"`
	Accepted   bool       `json:"accepted"`
}

// Selector picks the parser for a document. It keeps no state between calls.
type Selector struct {
	parsers []Parser
}

// NewSelector returns a selector over parsers, in priority order.
func NewSelector(parsers ...Parser) *Selector {
	return &Selector{parsers: parsers}
}

// Scores reports every parser's confidence for fullText.
func (s *Selector) Scores(fullText string) []Score {
	scores := make([]Score, 0, len(s.parsers))
	for _, p := range s.parsers {
		info := p.Format()
		confidence := p.CanParse(fullText)
		scores = append(scores, Score{
			Format:     info,
			Confidence: confidence,
			Accepted:   confidence >= info.MinConfidence,
		})
	}
	return scores
}

// Select returns the highest scoring parser that reaches its own minimum
// confidence. Ties go to the parser registered first.
func (s *Selector) Select(fullText string) (Selection, error) {
	var best Selection
	found := false
	for i, score := range s.Scores(fullText) {
		if !score.Accepted {
			continue
		}
		if !found || score.Confidence > best.Confidence {
			best = Selection{
				Parser:     s.parsers[i],
				FormatName: score.Format.Name,
				Confidence: score.Confidence,
			}
			found = true
		}
	}
	if !found {
		return Selection{}, fmt.Errorf("%w: no layout reached its minimum confidence", common.ErrFormatNotRecognized)
	}
	return best, nil
}
