package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// FilePersister keeps a single organization's document in a JSON file.
type FilePersister struct {
	path string
}

// NewFilePersister returns a persister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// LoadDocument reads the document from disk.
func (p *FilePersister) LoadDocument(_ context.Context, organizationID string) (*model.RuleDocument, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, p.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Metadata.OrganizationID != organizationID {
		return nil, fmt.Errorf("%w: %s holds rules for %q", common.ErrOrganizationMismatch, p.path, doc.Metadata.OrganizationID)
	}
	return doc, nil
}

// SaveDocument writes the document atomically through a temporary file.
func (p *FilePersister) SaveDocument(_ context.Context, doc *model.RuleDocument) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0750); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".rules-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close rules file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to replace rules file: %w", err)
	}
	return nil
}
