// Package model defines the core data structures for the cartola application.
package model

import (
	"time"
)

// GlobalScope is the scope value for rules that apply to every bank.
const GlobalScope = "global"

// FilterMatchType selects how a filter rule pattern is compared to a line.
type FilterMatchType string

// Filter match types.
const (
	MatchContains FilterMatchType = "contains"
	MatchStarts   FilterMatchType = "starts"
	MatchEnds     FilterMatchType = "ends"
	MatchExact    FilterMatchType = "exact"
	MatchRegex    FilterMatchType = "regex"
)

// Valid reports whether m is a known filter match type.
func (m FilterMatchType) Valid() bool {
	switch m {
	case MatchContains, MatchStarts, MatchEnds, MatchExact, MatchRegex:
		return true
	}
	return false
}

// FilterRule marks statement lines that are not transactions.
type FilterRule struct {
	CreatedAt   time.Time       `json:"createdAt"`
	ID          string          `json:"id"`
	Scope       string          `json:"scope"`
	MatchType   FilterMatchType `json:"matchType"`
	Pattern     string          `json:"pattern"`
	Description string          `json:"description"`
	Active      bool            `json:"active"`
}

// CorrectionMatchType selects how a correction rule rewrites a description.
type CorrectionMatchType string

// Correction match types.
const (
	CorrectWord    CorrectionMatchType = "word"
	CorrectExact   CorrectionMatchType = "exact"
	CorrectRegex   CorrectionMatchType = "regex"
	CorrectCleanup CorrectionMatchType = "cleanup"
)

// Valid reports whether m is a known correction match type.
func (m CorrectionMatchType) Valid() bool {
	switch m {
	case CorrectWord, CorrectExact, CorrectRegex, CorrectCleanup:
		return true
	}
	return false
}

// CorrectionRule rewrites extracted descriptions.
type CorrectionRule struct {
	CreatedAt       time.Time           `json:"createdAt"`
	ID              string              `json:"id"`
	Scope           string              `json:"scope"`
	Pattern         string              `json:"pattern"`
	Replacement     string              `json:"replacement"`
	MatchType       CorrectionMatchType `json:"matchType"`
	Description     string              `json:"description,omitempty"`
	CaseInsensitive bool                `json:"caseInsensitive"`
	Active          bool                `json:"active"`
}

// LearnedPattern maps a lowercase description fragment to a category.
type LearnedPattern struct {
	Timestamp time.Time `json:"timestamp"`
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
}
