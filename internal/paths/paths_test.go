package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWorkingDir(t *testing.T, dir string) {
	t.Helper()
	orig := platformDir.getwd
	platformDir.getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { platformDir.getwd = orig })
}

func TestUserDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := UserDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/slate", got)
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "/home/ana", nil }
		t.Cleanup(func() { platformDir.homeDir = orig })

		got, err := UserDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ana/.config/slate", got)
	})

	t.Run("home lookup fails", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
		t.Cleanup(func() { platformDir.homeDir = orig })

		_, err := UserDir()
		assert.Error(t, err)
	})
}

func TestResolveConfigDir(t *testing.T) {
	cwd := t.TempDir()
	withWorkingDir(t, cwd)
	envDir := filepath.Join(t.TempDir(), "env-config")
	flagDir := filepath.Join(t.TempDir(), "flag-config")

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"default", "", "", filepath.Join(cwd, DefaultConfigDirName)},
		{"env", "", envDir, envDir},
		{"flag beats env", flagDir, envDir, flagDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd := t.TempDir()
	withWorkingDir(t, cwd)
	envDir := filepath.Join(t.TempDir(), "env-data")
	cfgDir := filepath.Join(t.TempDir(), "cfg-data")
	flagDir := filepath.Join(t.TempDir(), "flag-data")

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"default", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
		{"env", "", "", envDir, envDir},
		{"config beats env", "", cfgDir, envDir, cfgDir},
		{"flag beats config", flagDir, cfgDir, envDir, flagDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir_RelativeFlagIsAbsolute(t *testing.T) {
	got, err := ResolveDataDir("rel-data", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "rel-data", filepath.Base(got))
}
