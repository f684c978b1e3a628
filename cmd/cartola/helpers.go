package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/cartola/internal/classification"
	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/config"
	"github.com/Veraticus/cartola/internal/rules"
	"github.com/Veraticus/cartola/internal/storage"
)

// session is the rule store and taxonomy a command works against.
type session struct {
	store    *rules.Store
	db       *storage.SQLiteStorage
	taxonomy *classification.Taxonomy
	settings config.Settings
}

// openSession loads settings, the configured rule store backend and the
// category taxonomy. The caller must Close the session.
func openSession(ctx context.Context) (*session, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	s := &session{settings: settings}

	var persister rules.Persister
	switch settings.StoreBackend {
	case config.BackendFile:
		persister = rules.NewFilePersister(settings.StoreFile)
		slog.Debug("Using file rule store", "path", settings.StoreFile)
	default:
		db, err := storage.Open(ctx, settings.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
		persister = db
		slog.Debug("Using sqlite rule store", "path", settings.DatabasePath)
	}

	s.store, err = rules.Load(ctx, persister, settings.Organization)
	if err != nil {
		s.Close()
		if errors.Is(err, common.ErrOrganizationMismatch) {
			return nil, common.NewUserError("rules file belongs to another organization; pass --org or point store.file elsewhere", err)
		}
		return nil, err
	}

	s.taxonomy = classification.DefaultTaxonomy()
	if settings.CategoriesFile != "" {
		s.taxonomy, err = classification.LoadTaxonomyFile(settings.CategoriesFile)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
	}

	return s, nil
}

// Close releases the database connection, if any.
func (s *session) Close() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
