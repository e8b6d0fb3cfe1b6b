package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/jmylchreest/adhan/internal/prayer"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "adhan"

// ConfigDir returns the adhan configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the path to the default config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// AudioPath returns the default cue directory.
func AudioPath() string {
	return filepath.Join(ConfigDir(), "audio")
}

// EnsureDirs creates the configuration directory and one cue directory
// per category below audioDir. It reports whether anything was created.
func EnsureDirs(audioDir string) (bool, error) {
	if audioDir == "" {
		audioDir = AudioPath()
	}

	dirs := []string{ConfigDir()}
	for _, category := range prayer.Categories() {
		dirs = append(dirs, filepath.Join(audioDir, string(category)))
	}

	created := false
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return created, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		created = true
	}
	return created, nil
}
