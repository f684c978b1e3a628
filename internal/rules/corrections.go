package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// CorrectionRuleInput describes a correction rule to create.
type CorrectionRuleInput struct {
	Scope           string
	Pattern         string
	Replacement     string
	MatchType       model.CorrectionMatchType
	Description     string
	CaseInsensitive bool
}

// CorrectionRuleUpdate lists the mutable fields of a correction rule.
type CorrectionRuleUpdate struct {
	Pattern     *string
	Replacement *string
	Description *string
	Active      *bool
}

// AddCorrectionRule validates and stores a new active correction rule.
func (s *Store) AddCorrectionRule(ctx context.Context, in CorrectionRuleInput) (model.CorrectionRule, error) {
	rule := model.CorrectionRule{
		ID:              s.newID(),
		Scope:           NormalizeScope(in.Scope),
		Pattern:         in.Pattern,
		Replacement:     in.Replacement,
		MatchType:       in.MatchType,
		Description:     in.Description,
		CaseInsensitive: in.CaseInsensitive,
		Active:          true,
		CreatedAt:       s.now(),
	}
	if err := validateCorrectionRule(rule); err != nil {
		return model.CorrectionRule{}, err
	}

	err := s.mutate(ctx, func(doc *model.RuleDocument) error {
		doc.DescriptionCorrections[rule.Scope] = append(doc.DescriptionCorrections[rule.Scope], rule)
		return nil
	})
	if err != nil {
		return model.CorrectionRule{}, err
	}
	return rule, nil
}

// UpdateCorrectionRule changes the mutable fields of the rule with the given id.
func (s *Store) UpdateCorrectionRule(ctx context.Context, id string, update CorrectionRuleUpdate) (model.CorrectionRule, error) {
	var updated model.CorrectionRule
	err := s.mutate(ctx, func(doc *model.RuleDocument) error {
		rule := findCorrectionRule(doc, id)
		if rule == nil {
			return fmt.Errorf("%w: correction rule %s", common.ErrRuleNotFound, id)
		}
		candidate := *rule
		if update.Pattern != nil {
			candidate.Pattern = *update.Pattern
		}
		if update.Replacement != nil {
			candidate.Replacement = *update.Replacement
		}
		if update.Description != nil {
			candidate.Description = *update.Description
		}
		if update.Active != nil {
			candidate.Active = *update.Active
		}
		if err := validateCorrectionRule(candidate); err != nil {
			return err
		}
		*rule = candidate
		updated = candidate
		return nil
	})
	return updated, err
}

// SetCorrectionRuleActive enables or disables a correction rule.
func (s *Store) SetCorrectionRuleActive(ctx context.Context, id string, active bool) error {
	_, err := s.UpdateCorrectionRule(ctx, id, CorrectionRuleUpdate{Active: &active})
	return err
}

// DeleteCorrectionRule removes the rule with the given id.
func (s *Store) DeleteCorrectionRule(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.RuleDocument) error {
		for scope, rules := range doc.DescriptionCorrections {
			for i := range rules {
				if rules[i].ID == id {
					doc.DescriptionCorrections[scope] = append(rules[:i:i], rules[i+1:]...)
					return nil
				}
			}
		}
		return fmt.Errorf("%w: correction rule %s", common.ErrRuleNotFound, id)
	})
}

// FindCorrectionRule returns the rule with the given id.
func (s *Store) FindCorrectionRule(id string) (model.CorrectionRule, bool) {
	if rule := findCorrectionRule(s.doc, id); rule != nil {
		return *rule, true
	}
	return model.CorrectionRule{}, false
}

func findCorrectionRule(doc *model.RuleDocument, id string) *model.CorrectionRule {
	for _, rules := range doc.DescriptionCorrections {
		for i := range rules {
			if rules[i].ID == id {
				return &rules[i]
			}
		}
	}
	return nil
}

func validateCorrectionRule(rule model.CorrectionRule) error {
	if !rule.MatchType.Valid() {
		return fmt.Errorf("%w: unknown match type %q", common.ErrInvalidRuleDefinition, rule.MatchType)
	}
	if rule.MatchType == model.CorrectCleanup {
		return nil
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("%w: empty pattern", common.ErrInvalidRuleDefinition)
	}
	if rule.MatchType == model.CorrectRegex {
		if _, err := common.CompileInsensitive(rule.Pattern); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidRuleDefinition, err)
		}
	}
	return nil
}
