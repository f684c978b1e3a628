package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// RuleUsage is the accumulated match count of one rule.
type RuleUsage struct {
	LastMatchedAt time.Time
	RuleID        string
	Count         int
}

// LoadDocument returns the stored rule document for an organization.
func (s *SQLiteStorage) LoadDocument(ctx context.Context, organizationID string) (*model.RuleDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(organizationID, "organizationID"); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM rule_documents WHERE organization_id = ?`,
		organizationID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rules for organization %q", common.ErrNotFound, organizationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule document: %w", err)
	}

	var doc model.RuleDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: stored document for %q: %v", common.ErrMalformedRuleDocument, organizationID, err)
	}
	doc.Normalize()
	return &doc, nil
}

// SaveDocument inserts or replaces the organization's rule document.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *model.RuleDocument) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode rule document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rule_documents (organization_id, version, document)
		VALUES (?, ?, ?)
		ON CONFLICT(organization_id) DO UPDATE SET
			version = excluded.version,
			document = excluded.document
	`, doc.Metadata.OrganizationID, doc.Metadata.Version, string(data))
	if err != nil {
		return fmt.Errorf("failed to save rule document: %w", err)
	}
	return nil
}

// RecordRuleUsage adds counts to the stored usage counters in one transaction.
func (s *SQLiteStorage) RecordRuleUsage(ctx context.Context, organizationID string, counts map[string]int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(organizationID, "organizationID"); err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rule_usage (organization_id, rule_id, match_count, last_matched_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(organization_id, rule_id) DO UPDATE SET
			match_count = match_count + excluded.match_count,
			last_matched_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for ruleID, count := range counts {
		if count <= 0 {
			continue
		}
		if _, err = stmt.ExecContext(ctx, organizationID, ruleID, count); err != nil {
			return fmt.Errorf("failed to record usage for rule %s: %w", ruleID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage: %w", err)
	}
	return nil
}

// RuleUsage lists the organization's usage counters, most used first.
func (s *SQLiteStorage) RuleUsage(ctx context.Context, organizationID string) ([]RuleUsage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, match_count, last_matched_at
		FROM rule_usage
		WHERE organization_id = ?
		ORDER BY match_count DESC, rule_id
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usage []RuleUsage
	for rows.Next() {
		var u RuleUsage
		if err := rows.Scan(&u.RuleID, &u.Count, &u.LastMatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule usage: %w", err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule usage: %w", err)
	}
	return usage, nil
}
