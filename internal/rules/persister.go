// Package rules holds the persisted, scoped rule set that drives line
// filtering, description correction and learned classification patterns.
package rules

import (
	"context"

	"github.com/Veraticus/cartola/internal/model"
)

// Persister loads and saves rule documents. LoadDocument returns an error
// wrapping common.ErrNotFound when nothing has been stored for the organization.
//
//go:generate mockgen -destination=mocks/mock_persister.go -source=persister.go Persister
type Persister interface {
	LoadDocument(ctx context.Context, organizationID string) (*model.RuleDocument, error)
	SaveDocument(ctx context.Context, doc *model.RuleDocument) error
}

// UsageRecorder is implemented by persisters that keep rule usage counters.
type UsageRecorder interface {
	RecordRuleUsage(ctx context.Context, organizationID string, counts map[string]int) error
}
