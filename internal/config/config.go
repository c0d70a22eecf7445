// Package config resolves where planward stores its durable plan data.
//
// The plans directory is resolved once per store instance through a fixed
// priority chain that callers can rely on:
//
//  1. explicit override (tool/test injection)
//  2. PLANWARD_PLANS_DIR environment variable
//  3. per-project settings file (.planward.json in the working directory)
//  4. global user settings file (~/.planward/settings.json)
//  5. hard default: ~/.planward/plans
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const (
	// ProjectSettingsFile is the per-project settings filename, looked up
	// in the current working directory.
	ProjectSettingsFile = ".planward.json"

	// globalDirName is the planward home directory under $HOME.
	globalDirName = ".planward"

	// GlobalSettingsFile is the settings filename inside the global dir.
	GlobalSettingsFile = "settings.json"

	// defaultPlansSubdir is the plans directory inside the global dir.
	defaultPlansSubdir = "plans"
)

// userHomeDir is a package-level variable for testability.
var userHomeDir = os.UserHomeDir

// Settings is the on-disk shape of both the project and global settings
// files. Unknown fields are ignored so the file can grow.
type Settings struct {
	PlansDir string `json:"plans_dir,omitempty"`
}

// envSettings maps the environment override layer.
type envSettings struct {
	PlansDir string `env:"PLANWARD_PLANS_DIR"`
}

// ResolvePlansDir resolves the plans directory through the priority chain.
// It never fails: every layer degrades to the next one, ending at the
// hard default.
func ResolvePlansDir(override string) string {
	if override != "" {
		return override
	}

	var es envSettings
	if err := env.Parse(&es); err == nil && es.PlansDir != "" {
		return es.PlansDir
	}

	if cwd, err := os.Getwd(); err == nil {
		if s, ok := readSettings(filepath.Join(cwd, ProjectSettingsFile)); ok && s.PlansDir != "" {
			return s.PlansDir
		}
	}

	home, err := userHomeDir()
	if err != nil {
		// No home directory: fall back to a relative plans dir.
		return defaultPlansSubdir
	}

	if s, ok := readSettings(filepath.Join(home, globalDirName, GlobalSettingsFile)); ok && s.PlansDir != "" {
		return s.PlansDir
	}

	return filepath.Join(home, globalDirName, defaultPlansSubdir)
}

// GlobalDir returns the planward home directory (~/.planward), used for
// auxiliary data like the thinking database.
func GlobalDir() string {
	home, err := userHomeDir()
	if err != nil {
		return globalDirName
	}
	return filepath.Join(home, globalDirName)
}

// readSettings reads and parses a settings file. A missing or corrupt
// file is tolerated — the caller moves on to the next layer.
func readSettings(path string) (Settings, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, false
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, false
	}
	return s, true
}
