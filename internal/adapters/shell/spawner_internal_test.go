package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnvironment(t *testing.T) {
	tests := []struct {
		name      string
		sysEnv    []string
		overrides []string
		expected  []string
	}{
		{
			name:     "inherits everything",
			sysEnv:   []string{"USER=test", "PATH=/bin", "SSH_AUTH_SOCK=/tmp/ssh"},
			expected: []string{"USER=test", "PATH=/bin", "SSH_AUTH_SOCK=/tmp/ssh"},
		},
		{
			name:      "overrides keep position",
			sysEnv:    []string{"USER=test", "PATH=/bin"},
			overrides: []string{"PATH=/custom/bin", "FOO=bar"},
			expected:  []string{"USER=test", "PATH=/custom/bin", "FOO=bar"},
		},
		{
			name:      "malformed entries are dropped",
			sysEnv:    []string{"BROKEN", "A=1"},
			overrides: []string{"B=2=3"},
			expected:  []string{"A=1", "B=2=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveEnvironment(tt.sysEnv, tt.overrides))
		})
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data"), []byte("x"), 0o600))

	got, err := lookPath("tool", []string{"PATH=/nonexistent" + string(os.PathListSeparator) + dir})
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = lookPath("data", []string{"PATH=" + dir})
	require.Error(t, err)

	_, err = lookPath("tool", nil)
	require.Error(t, err)
}
