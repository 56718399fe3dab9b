package glob_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/glob"
	"go.trai.ch/tend/internal/core/domain"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0o600))
	}
}

func TestSplitPatterns(t *testing.T) {
	assert.Equal(t, []string{"*.go", "!vendor", "docs/**"}, glob.SplitPatterns("*.go, !vendor,,docs/** "))
	assert.Empty(t, glob.SplitPatterns(" , "))
}

func TestIsExclude(t *testing.T) {
	assert.True(t, glob.IsExclude("!vendor"))
	assert.False(t, glob.IsExclude("!(a|b).go"))
	assert.False(t, glob.IsExclude("src/*.go"))
}

func TestPreprocess(t *testing.T) {
	got := glob.Preprocess([]string{"src/**", "!build", "!out/", "!gen/**/*"})
	assert.Equal(t, []string{
		"src/**",
		"!build", "!build/**/*",
		"!out/", "!out/**/*",
		"!gen/**/*",
	}, got)
}

func TestResolver_Resolve(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"main.go",
		"pkg/a.go",
		"pkg/a_test.go",
		"vendor/lib/lib.go",
		"temp/a",
		"temp/b/nested.txt",
	)

	r := glob.NewResolver()

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "recursive include",
			patterns: []string{"**/*.go"},
			want:     []string{"main.go", "pkg/a.go", "pkg/a_test.go", "vendor/lib/lib.go"},
		},
		{
			name:     "excluded directory covers its subtree",
			patterns: []string{"**/*.go", "!vendor"},
			want:     []string{"main.go", "pkg/a.go", "pkg/a_test.go"},
		},
		{
			name:     "exclude applies across includes",
			patterns: []string{"pkg/*.go", "main.go", "!**/*_test.go"},
			want:     []string{"main.go", "pkg/a.go"},
		},
		{
			name:     "overlapping includes are deduplicated",
			patterns: []string{"pkg/*", "pkg/a.go", "./pkg/a.go"},
			want:     []string{"pkg/a.go", "pkg/a_test.go"},
		},
		{
			name:     "literal paths",
			patterns: []string{"temp/a", "temp/b", "!temp/b"},
			want:     []string{"temp/a"},
		},
		{
			name:     "missing path resolves to nothing",
			patterns: []string{"nope/*.txt"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(root, tt.patterns)
			require.NoError(t, err)
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.FromSlash(w)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestResolver_AbsolutePattern(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.txt", "b.log")

	got, err := glob.NewResolver().Resolve(t.TempDir(), []string{filepath.Join(root, "*.txt")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.txt")}, got)
}

func TestResolver_InvalidPattern(t *testing.T) {
	_, err := glob.NewResolver().Resolve(t.TempDir(), []string{"src/[a"})
	require.ErrorIs(t, err, domain.ErrInvalidPattern)

	_, err = glob.NewResolver().Resolve(t.TempDir(), []string{"*.go", "![z"})
	require.ErrorIs(t, err, domain.ErrInvalidPattern)
}
