// Package config resolves budget's file locations and service settings
// from viper.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultDatabasePath is used when database.path is unset.
	DefaultDatabasePath = "~/.local/share/budget/budget.db"
	// Dir holds config.yaml and the Sheets token.
	Dir = "~/.config/budget"
)

// ExpandPath replaces a leading ~ with the home directory, then expands
// $VAR references. The path is returned unchanged when home is unknown.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

// DatabasePath returns the expanded database.path, or the default location.
func DatabasePath(v *viper.Viper) string {
	p := v.GetString("database.path")
	if p == "" {
		p = DefaultDatabasePath
	}
	return ExpandPath(p)
}
