// Package config resolves cartola's settings from viper and expands the
// paths they name.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// memoryPath is SQLite's in-memory database name and is never expanded.
const memoryPath = ":memory:"

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	if path == "" || path == memoryPath {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// dataPath names a file in cartola's data directory, under XDG_DATA_HOME
// when it is set.
func dataPath(name string) string {
	base := "$HOME/.local/share"
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		base = xdg
	}
	return filepath.Join(base, "cartola", name)
}
