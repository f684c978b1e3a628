package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// FilterRuleInput describes a filter rule to create.
type FilterRuleInput struct {
	Scope       string
	MatchType   model.FilterMatchType
	Pattern     string
	Description string
}

// FilterRuleUpdate lists the mutable fields of a filter rule; nil fields are left alone.
type FilterRuleUpdate struct {
	Pattern     *string
	Description *string
	Active      *bool
}

// AddFilterRule validates and stores a new active filter rule.
func (s *Store) AddFilterRule(ctx context.Context, in FilterRuleInput) (model.FilterRule, error) {
	rule := model.FilterRule{
		ID:          s.newID(),
		Scope:       NormalizeScope(in.Scope),
		MatchType:   in.MatchType,
		Pattern:     in.Pattern,
		Description: in.Description,
		Active:      true,
		CreatedAt:   s.now(),
	}
	if err := validateFilterRule(rule); err != nil {
		return model.FilterRule{}, err
	}

	err := s.mutate(ctx, func(doc *model.RuleDocument) error {
		if rule.Scope == model.GlobalScope {
			doc.GlobalRules = append(doc.GlobalRules, rule)
		} else {
			doc.BankSpecificRules[rule.Scope] = append(doc.BankSpecificRules[rule.Scope], rule)
		}
		return nil
	})
	if err != nil {
		return model.FilterRule{}, err
	}
	return rule, nil
}

// UpdateFilterRule changes the mutable fields of the rule with the given id.
func (s *Store) UpdateFilterRule(ctx context.Context, id string, update FilterRuleUpdate) (model.FilterRule, error) {
	var updated model.FilterRule
	err := s.mutate(ctx, func(doc *model.RuleDocument) error {
		rule := findFilterRule(doc, id)
		if rule == nil {
			return fmt.Errorf("%w: filter rule %s", common.ErrRuleNotFound, id)
		}
		candidate := *rule
		if update.Pattern != nil {
			candidate.Pattern = *update.Pattern
		}
		if update.Description != nil {
			candidate.Description = *update.Description
		}
		if update.Active != nil {
			candidate.Active = *update.Active
		}
		if err := validateFilterRule(candidate); err != nil {
			return err
		}
		*rule = candidate
		updated = candidate
		return nil
	})
	return updated, err
}

// SetFilterRuleActive enables or disables a filter rule.
func (s *Store) SetFilterRuleActive(ctx context.Context, id string, active bool) error {
	_, err := s.UpdateFilterRule(ctx, id, FilterRuleUpdate{Active: &active})
	return err
}

// DeleteFilterRule removes the rule with the given id.
func (s *Store) DeleteFilterRule(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.RuleDocument) error {
		if removed, ok := removeFilterRule(doc.GlobalRules, id); ok {
			doc.GlobalRules = removed
			return nil
		}
		for scope, rules := range doc.BankSpecificRules {
			if removed, ok := removeFilterRule(rules, id); ok {
				doc.BankSpecificRules[scope] = removed
				return nil
			}
		}
		return fmt.Errorf("%w: filter rule %s", common.ErrRuleNotFound, id)
	})
}

// FindFilterRule returns the rule with the given id.
func (s *Store) FindFilterRule(id string) (model.FilterRule, bool) {
	if rule := findFilterRule(s.doc, id); rule != nil {
		return *rule, true
	}
	return model.FilterRule{}, false
}

func findFilterRule(doc *model.RuleDocument, id string) *model.FilterRule {
	for i := range doc.GlobalRules {
		if doc.GlobalRules[i].ID == id {
			return &doc.GlobalRules[i]
		}
	}
	for _, rules := range doc.BankSpecificRules {
		for i := range rules {
			if rules[i].ID == id {
				return &rules[i]
			}
		}
	}
	return nil
}

func removeFilterRule(rules []model.FilterRule, id string) ([]model.FilterRule, bool) {
	for i := range rules {
		if rules[i].ID == id {
			return append(rules[:i:i], rules[i+1:]...), true
		}
	}
	return rules, false
}

func validateFilterRule(rule model.FilterRule) error {
	if !rule.MatchType.Valid() {
		return fmt.Errorf("%w: unknown match type %q", common.ErrInvalidRuleDefinition, rule.MatchType)
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("%w: empty pattern", common.ErrInvalidRuleDefinition)
	}
	if rule.MatchType == model.MatchRegex {
		if _, err := common.CompileInsensitive(rule.Pattern); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidRuleDefinition, err)
		}
	}
	return nil
}
