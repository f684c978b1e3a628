package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// Store is the in-memory rule set for one organization. It is loaded once,
// handed explicitly to the components that read it, and saved after every
// mutation. Store assumes a single writer.
type Store struct {
	persister Persister
	doc       *model.RuleDocument
	usage     map[string]int
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides rule id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore wraps an already loaded document. A nil persister keeps the store
// purely in memory.
func NewStore(doc *model.RuleDocument, persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		usage:     make(map[string]int),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if doc == nil {
		doc = DefaultDocument("default", s.now(), s.newID)
	}
	doc.Normalize()
	s.doc = doc
	return s
}

// Load reads the organization's document through persister, seeding and
// saving the default rule set when none exists yet.
func Load(ctx context.Context, persister Persister, organizationID string, opts ...Option) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("%w: persister", common.ErrMissingConfig)
	}

	doc, err := persister.LoadDocument(ctx, organizationID)
	switch {
	case err == nil:
		return NewStore(doc, persister, opts...), nil
	case errors.Is(err, common.ErrNotFound):
		s := NewStore(nil, persister, opts...)
		s.doc = DefaultDocument(organizationID, s.now(), s.newID)
		if err := s.Save(ctx); err != nil {
			return nil, fmt.Errorf("failed to save default rules: %w", err)
		}
		slog.Info("Seeded default rule set", "organization", organizationID, "rules", s.doc.RuleCount())
		return s, nil
	default:
		return nil, fmt.Errorf("failed to load rules for %q: %w", organizationID, err)
	}
}

// OrganizationID returns the owner of the rule set.
func (s *Store) OrganizationID() string {
	return s.doc.Metadata.OrganizationID
}

// Save persists the document and any pending usage counters.
func (s *Store) Save(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveDocument(ctx, s.doc); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	if recorder, ok := s.persister.(UsageRecorder); ok && len(s.usage) > 0 {
		if err := recorder.RecordRuleUsage(ctx, s.OrganizationID(), s.usage); err != nil {
			return fmt.Errorf("failed to save rule usage: %w", err)
		}
		s.usage = make(map[string]int)
	}
	return nil
}

// Document returns a deep copy of the current document.
func (s *Store) Document() *model.RuleDocument {
	return cloneDocument(s.doc)
}

// Banks returns the bank scopes that have filter or correction rules.
func (s *Store) Banks() []string {
	seen := make(map[string]bool)
	var banks []string
	for bank := range s.doc.BankSpecificRules {
		if !seen[bank] {
			seen[bank] = true
			banks = append(banks, bank)
		}
	}
	for scope := range s.doc.DescriptionCorrections {
		if scope != model.GlobalScope && !seen[scope] {
			seen[scope] = true
			banks = append(banks, scope)
		}
	}
	return banks
}

// FilterRules returns the global rules followed by the bank's own rules.
// Bank rules never replace global ones.
func (s *Store) FilterRules(bank string) []model.FilterRule {
	rules := make([]model.FilterRule, 0, len(s.doc.GlobalRules))
	rules = append(rules, s.doc.GlobalRules...)
	if scope := NormalizeScope(bank); scope != model.GlobalScope {
		rules = append(rules, s.doc.BankSpecificRules[scope]...)
	}
	return rules
}

// CorrectionRules returns the global corrections followed by the bank's own.
func (s *Store) CorrectionRules(bank string) []model.CorrectionRule {
	global := s.doc.DescriptionCorrections[model.GlobalScope]
	rules := make([]model.CorrectionRule, 0, len(global))
	rules = append(rules, global...)
	if scope := NormalizeScope(bank); scope != model.GlobalScope {
		rules = append(rules, s.doc.DescriptionCorrections[scope]...)
	}
	return rules
}

// LearnedPatterns returns the learned patterns in insertion order.
func (s *Store) LearnedPatterns() []model.LearnedPattern {
	patterns := make([]model.LearnedPattern, len(s.doc.LearnedPatterns))
	copy(patterns, s.doc.LearnedPatterns)
	return patterns
}

// PutLearnedPattern stores pattern → category. An existing pattern keeps its
// position and takes the new category. Category validity is the caller's
// responsibility.
func (s *Store) PutLearnedPattern(ctx context.Context, pattern, category, source string) (model.LearnedPattern, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return model.LearnedPattern{}, fmt.Errorf("%w: empty pattern", common.ErrInvalidRuleDefinition)
	}

	learned := model.LearnedPattern{
		Pattern:   pattern,
		Category:  category,
		Source:    source,
		Timestamp: s.now(),
	}

	err := s.mutate(ctx, func(doc *model.RuleDocument) error {
		for i := range doc.LearnedPatterns {
			if doc.LearnedPatterns[i].Pattern == pattern {
				doc.LearnedPatterns[i] = learned
				return nil
			}
		}
		doc.LearnedPatterns = append(doc.LearnedPatterns, learned)
		return nil
	})
	if err != nil {
		return model.LearnedPattern{}, err
	}
	return learned, nil
}

// RecordUsage counts a rule match. Counters are flushed on the next Save.
func (s *Store) RecordUsage(ruleID string) {
	s.usage[ruleID]++
}

// Usage returns the counters accumulated since the last Save.
func (s *Store) Usage() map[string]int {
	counts := make(map[string]int, len(s.usage))
	for id, n := range s.usage {
		counts[id] = n
	}
	return counts
}

// NormalizeScope lowercases a bank name; empty means global.
func NormalizeScope(scope string) string {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		return model.GlobalScope
	}
	return scope
}

// mutate applies fn to a copy of the document and saves it, keeping the
// previous document when fn or the save fails.
func (s *Store) mutate(ctx context.Context, fn func(doc *model.RuleDocument) error) error {
	previous := s.doc
	next := cloneDocument(previous)
	if err := fn(next); err != nil {
		return err
	}
	next.Metadata.UpdatedAt = s.now()

	s.doc = next
	if err := s.Save(ctx); err != nil {
		s.doc = previous
		return err
	}
	return nil
}

func cloneDocument(doc *model.RuleDocument) *model.RuleDocument {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("rule document is not serializable: %v", err))
	}
	var clone model.RuleDocument
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(fmt.Sprintf("rule document does not round-trip: %v", err))
	}
	clone.Normalize()
	return &clone
}
