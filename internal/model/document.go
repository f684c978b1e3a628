package model

import "time"

// RuleDocumentVersion is the current wire version of the rule document.
const RuleDocumentVersion = "2.0"

// RuleMetadata identifies the owner and revision of a rule document.
type RuleMetadata struct {
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	OrganizationID string    `json:"organizationId"`
	Version        string    `json:"version"`
}

// RuleDocument is the persisted form of the rule store.
type RuleDocument struct {
	BankSpecificRules      map[string][]FilterRule     `json:"bankSpecificRules"`
	DescriptionCorrections map[string][]CorrectionRule `json:"descriptionCorrections"`
	Settings               map[string]any              `json:"settings"`
	Metadata               RuleMetadata                `json:"metadata"`
	GlobalRules            []FilterRule                `json:"globalRules"`
	LearnedPatterns        []LearnedPattern            `json:"learnedPatterns"`
}

// ExportMetadata describes an exported rule document.
type ExportMetadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	Format     string    `json:"format"`
	RuleCount  int       `json:"ruleCount"`
}

// ExportedRuleDocument is a rule document with export metadata attached.
type ExportedRuleDocument struct {
	*RuleDocument
	ExportMetadata ExportMetadata `json:"exportMetadata"`
}

// NewRuleDocument returns an empty document for the organization.
func NewRuleDocument(organizationID string, now time.Time) *RuleDocument {
	return &RuleDocument{
		Metadata: RuleMetadata{
			OrganizationID: organizationID,
			Version:        RuleDocumentVersion,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		GlobalRules:            []FilterRule{},
		BankSpecificRules:      map[string][]FilterRule{},
		DescriptionCorrections: map[string][]CorrectionRule{GlobalScope: {}},
		LearnedPatterns:        []LearnedPattern{},
		Settings:               map[string]any{},
	}
}

// Normalize fills nil collections so callers can append without checks.
func (d *RuleDocument) Normalize() {
	if d.GlobalRules == nil {
		d.GlobalRules = []FilterRule{}
	}
	if d.BankSpecificRules == nil {
		d.BankSpecificRules = map[string][]FilterRule{}
	}
	if d.DescriptionCorrections == nil {
		d.DescriptionCorrections = map[string][]CorrectionRule{}
	}
	if _, ok := d.DescriptionCorrections[GlobalScope]; !ok {
		d.DescriptionCorrections[GlobalScope] = []CorrectionRule{}
	}
	if d.LearnedPatterns == nil {
		d.LearnedPatterns = []LearnedPattern{}
	}
	if d.Settings == nil {
		d.Settings = map[string]any{}
	}
	if d.Metadata.Version == "" {
		d.Metadata.Version = RuleDocumentVersion
	}
}

// RuleCount returns the number of filter and correction rules in the document.
func (d *RuleDocument) RuleCount() int {
	count := len(d.GlobalRules)
	for _, rules := range d.BankSpecificRules {
		count += len(rules)
	}
	for _, rules := range d.DescriptionCorrections {
		count += len(rules)
	}
	return count
}
