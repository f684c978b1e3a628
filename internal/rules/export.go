package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// ExportFormat tags exported documents.
const ExportFormat = "cartola-rules"

// requiredKeys must be present at the top level of an imported document.
var requiredKeys = []string{"globalRules", "bankSpecificRules"}

// Export serializes the document verbatim with export metadata attached.
func (s *Store) Export() ([]byte, error) {
	doc := cloneDocument(s.doc)
	exported := model.ExportedRuleDocument{
		RuleDocument: doc,
		ExportMetadata: model.ExportMetadata{
			ExportedAt: s.now(),
			Format:     ExportFormat,
			RuleCount:  doc.RuleCount(),
		},
	}
	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export rules: %w", err)
	}
	return data, nil
}

// Import replaces the whole rule set with the document in data. Nothing
// changes unless the document is well formed and saves successfully.
func (s *Store) Import(ctx context.Context, data []byte) error {
	doc, err := ParseDocument(data)
	if err != nil {
		return err
	}
	doc.Metadata.OrganizationID = s.OrganizationID()
	doc.Metadata.UpdatedAt = s.now()

	// Counters refer to the replaced rules and are dropped with them.
	previous, previousUsage := s.doc, s.usage
	s.doc, s.usage = doc, make(map[string]int)
	if err := s.Save(ctx); err != nil {
		s.doc, s.usage = previous, previousUsage
		return err
	}
	return nil
}

// ParseDocument decodes and validates a rule document.
func ParseDocument(data []byte) (*model.RuleDocument, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRuleDocument, err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", common.ErrMalformedRuleDocument, key)
		}
	}

	var doc model.RuleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRuleDocument, err)
	}
	doc.Normalize()

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func validateDocument(doc *model.RuleDocument) error {
	seen := make(map[string]bool)
	check := func(id string) error {
		if id == "" {
			return fmt.Errorf("%w: rule without id", common.ErrMalformedRuleDocument)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate rule id %s", common.ErrMalformedRuleDocument, id)
		}
		seen[id] = true
		return nil
	}

	for _, rule := range doc.GlobalRules {
		if err := check(rule.ID); err != nil {
			return err
		}
	}
	for _, rules := range doc.BankSpecificRules {
		for _, rule := range rules {
			if err := check(rule.ID); err != nil {
				return err
			}
		}
	}
	for _, rules := range doc.DescriptionCorrections {
		for _, rule := range rules {
			if err := check(rule.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
