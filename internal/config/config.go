package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/cartola/internal/common"
)

// Configuration keys.
const (
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
	KeyStoreBackend   = "store.backend"
	KeyOrganization   = "store.organization"
	KeyStoreFile      = "store.file"
	KeyDatabasePath   = "database.path"
	KeyCategoriesFile = "categories.file"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Settings is the resolved application configuration.
type Settings struct {
	LogLevel       string
	LogFormat      string
	StoreBackend   string
	Organization   string
	StoreFile      string
	DatabasePath   string
	CategoriesFile string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyStoreBackend, BackendSQLite)
	v.SetDefault(KeyOrganization, "default")
	v.SetDefault(KeyStoreFile, dataPath("rules.json"))
	v.SetDefault(KeyDatabasePath, dataPath("cartola.db"))
	v.SetDefault(KeyCategoriesFile, "")
}

// Load resolves settings from v, expanding paths.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		StoreBackend:   v.GetString(KeyStoreBackend),
		Organization:   v.GetString(KeyOrganization),
		StoreFile:      ExpandPath(v.GetString(KeyStoreFile)),
		DatabasePath:   ExpandPath(v.GetString(KeyDatabasePath)),
		CategoriesFile: ExpandPath(v.GetString(KeyCategoriesFile)),
	}

	switch s.StoreBackend {
	case BackendSQLite, BackendFile:
	default:
		return s, fmt.Errorf("%w: store backend %q", common.ErrInvalidConfig, s.StoreBackend)
	}
	if s.Organization == "" {
		return s, fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyOrganization)
	}
	return s, nil
}
