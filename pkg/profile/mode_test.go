package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		value    string
		wantMode Mode
		wantPath string
	}{
		{"", ModeDisabled, ""},
		{"1", ModeConsole, ""},
		{"yes", ModeConsole, ""},
		{"capt", ModeConsole, ""},
		{"capture", ModeCapture, ""},
		{"CAPTURE", ModeCapture, ""},
		{"Capture:", ModeCapture, ""},
		{"capture:/tmp/app.db", ModeCapture, "/tmp/app.db"},
		{"capture:relative.db", ModeCapture, "relative.db"},
		{"captured", ModeCapture, ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			mode, path := ParseMode(tt.value)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "disabled", ModeDisabled.String())
	assert.Equal(t, "console", ModeConsole.String())
	assert.Equal(t, "capture", ModeCapture.String())
	assert.Equal(t, "mode(9)", Mode(9).String())
}

func TestDefaultCapturePath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honored on linux")
	}

	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	path := DefaultCapturePath("demo", 42)
	assert.Equal(t, filepath.Join(cache, "com.endlessm.Sdk.Profile", "demo-42.db"), path)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestDefaultCapturePath_FallsBackToWorkingDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honored on linux")
	}

	// A regular file where the cache directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	t.Setenv("XDG_CACHE_HOME", blocker)

	cwd, err := os.Getwd()
	require.NoError(t, err)

	path := DefaultCapturePath("demo", 7)
	assert.Equal(t, filepath.Join(cwd, "demo-7.db"), path)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("EOS_PROFILE", "capture:"+filepath.Join(t.TempDir(), "env.db"))
	r := NewFromEnv(Options{Mode: ModeConsole})
	assert.Equal(t, ModeCapture, r.Mode())
	assert.Equal(t, "env.db", filepath.Base(r.CaptureFile()))

	t.Setenv("EOS_PROFILE", "")
	r = NewFromEnv(Options{Mode: ModeConsole})
	assert.False(t, r.Enabled())
	assert.Empty(t, r.CaptureFile())
}
