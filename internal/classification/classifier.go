// Package classification assigns categories to transactions through a
// cascade of learned patterns, keyword scoring, amount heuristics and fuzzy
// similarity against example phrases.
package classification

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// Fixed confidences of the cascade ends.
const (
	LearnedConfidence = 95
	DefaultConfidence = 20
	defaultReason     = "no specific pattern found"
)

// LearnSource marks patterns stored through Learn.
const LearnSource = "user"

// PatternStore holds learned patterns. *rules.Store satisfies it.
type PatternStore interface {
	LearnedPatterns() []model.LearnedPattern
	PutLearnedPattern(ctx context.Context, pattern, category, source string) (model.LearnedPattern, error)
}

// Classifier runs the classification cascade. It keeps no state between
// calls other than the store it was given.
type Classifier struct {
	store      PatternStore
	taxonomy   *Taxonomy
	heuristics []compiledHeuristic
}

// New returns a classifier over store and taxonomy. A nil taxonomy selects
// DefaultTaxonomy.
func New(store PatternStore, taxonomy *Taxonomy) *Classifier {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	heuristics, err := compileHeuristics(DefaultAmountHeuristics)
	if err != nil {
		panic(err)
	}
	return &Classifier{store: store, taxonomy: taxonomy, heuristics: heuristics}
}

// Taxonomy returns the classifier's taxonomy.
func (c *Classifier) Taxonomy() *Taxonomy {
	return c.taxonomy
}

// Classify assigns a category to description. amount is optional; without
// it the amount heuristics are skipped.
func (c *Classifier) Classify(description string, amount *int64) model.Classification {
	desc := strings.Join(strings.Fields(common.Fold(description)), " ")

	if result, ok := c.learned(desc); ok {
		return result
	}

	if best, ok := bestKeywordCategory(desc, c.taxonomy); ok && best.total >= keywordThreshold {
		return model.Classification{
			Category:   best.category,
			Confidence: min(best.total, 100),
			Reason:     best.reason(),
			Stage:      model.StageKeyword,
		}
	}

	// A heuristic under its acceptance threshold falls through.
	if amount != nil {
		if h, ok := matchHeuristic(c.heuristics, desc, *amount); ok && c.taxonomy.Has(h.Category) && h.Confidence >= amountThreshold {
			return model.Classification{
				Category:   h.Category,
				Confidence: h.Confidence,
				Reason:     h.reason(*amount),
				Stage:      model.StageAmount,
			}
		}
	}

	if m, ok := firstFuzzyMatch(desc, c.taxonomy); ok && m.confidence() >= fuzzyThreshold {
		return model.Classification{
			Category:   m.category,
			Confidence: m.confidence(),
			Reason:     fmt.Sprintf("similar to %q (%.0f%%)", m.example, m.similarity*100),
			Stage:      model.StageFuzzy,
		}
	}

	return model.Classification{
		Category:   model.OtherCategory,
		Confidence: DefaultConfidence,
		Reason:     defaultReason,
		Stage:      model.StageDefault,
	}
}

func (c *Classifier) learned(desc string) (model.Classification, bool) {
	if c.store == nil {
		return model.Classification{}, false
	}
	for _, p := range c.store.LearnedPatterns() {
		pattern := common.Fold(strings.TrimSpace(p.Pattern))
		if pattern == "" || !strings.Contains(desc, pattern) {
			continue
		}
		return model.Classification{
			Category:   p.Category,
			Confidence: LearnedConfidence,
			Reason:     fmt.Sprintf("learned pattern %q", p.Pattern),
			Stage:      model.StageLearned,
		}, true
	}
	return model.Classification{}, false
}

// ClassifyBatch classifies each transaction independently and returns
// annotated copies with the category's color and icon attached.
func (c *Classifier) ClassifyBatch(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, txn := range txns {
		amount := txn.Amount
		result := c.Classify(txn.Description, &amount)
		result.Apply(&txn)

		def, ok := c.taxonomy.Lookup(result.Category)
		if !ok {
			def = model.CategoryDefinition{Name: result.Category}
		}
		txn.CategoryColor, txn.CategoryIcon = def.Presentation()
		out[i] = txn
	}
	return out
}

// Learn maps pattern to category for future classifications. Unknown
// categories are rejected before the store is touched.
func (c *Classifier) Learn(ctx context.Context, pattern, category string) (model.LearnedPattern, error) {
	if !c.taxonomy.Has(category) {
		return model.LearnedPattern{}, fmt.Errorf("%w: %q", common.ErrInvalidCategory, category)
	}
	if c.store == nil {
		return model.LearnedPattern{}, fmt.Errorf("%w: pattern store", common.ErrMissingConfig)
	}
	learned, err := c.store.PutLearnedPattern(ctx, pattern, category, LearnSource)
	if err != nil {
		return model.LearnedPattern{}, fmt.Errorf("failed to learn pattern: %w", err)
	}
	common.LogInfo("Learned classification pattern", common.Fields{
		"pattern":  learned.Pattern,
		"category": category,
	})
	return learned, nil
}
