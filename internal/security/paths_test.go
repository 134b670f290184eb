package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	outsideDir := filepath.Join(tmpDir, "outside")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "day1"), 0755))
	require.NoError(t, os.MkdirAll(outsideDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "day1", "a.otdet"), []byte("{}"), 0644))
	require.NoError(t, os.Symlink(outsideDir, filepath.Join(dataDir, "evil")))

	canonicalData, err := filepath.EvalSymlinks(dataDir)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative file", path: "day1/a.otdet", want: filepath.Join(canonicalData, "day1", "a.otdet")},
		{name: "relative directory", path: "day1", want: filepath.Join(canonicalData, "day1")},
		{name: "absolute inside", path: filepath.Join(dataDir, "day1"), want: filepath.Join(canonicalData, "day1")},
		{name: "data dir itself", path: ".", want: canonicalData},
		{name: "missing file inside", path: "day2/b.otdet", want: filepath.Join(canonicalData, "day2", "b.otdet")},
		{name: "traversal", path: "../outside", wantErr: true},
		{name: "absolute outside", path: outsideDir, wantErr: true},
		{name: "symlink escape", path: "evil/secret.otdet", wantErr: true},
		{name: "empty", path: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithinDirectory(tt.path, dataDir)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrPathOutside), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWithinMissingDirectory(t *testing.T) {
	_, err := ResolveWithinDirectory("a.otdet", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPathOutside))
}
