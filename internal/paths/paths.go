// Package paths resolves the configuration and data directories.
//
// Both directories default to folders in the working directory so a
// screenplay project is self-contained. Flags, config.yaml and the
// SLATE_* environment variables override the defaults.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Working-directory defaults.
const (
	DefaultConfigDirName = ".slate"
	DefaultDataDirName   = ".slate-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SLATE_CONFIG_DIR"
	EnvDataDir   = "SLATE_DATA_DIR"
)

const appName = "slate"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserDir returns the per-user slate directory, which holds a shared .env
// file for API keys.
//
// Linux:   $XDG_CONFIG_HOME/slate (fallback ~/.config/slate)
// macOS:   ~/Library/Application Support/slate
// Windows: %APPDATA%/slate
func UserDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory:
// flag > SLATE_CONFIG_DIR > ./.slate.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return fromWorkingDir(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory:
// flag > config.yaml data_dir > SLATE_DATA_DIR > ./.slate-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return fromWorkingDir(DefaultDataDirName)
}

func fromWorkingDir(name string) (string, error) {
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
