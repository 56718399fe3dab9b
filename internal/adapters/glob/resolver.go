// Package glob expands include and exclude patterns into concrete paths.
package glob

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/tend/internal/core/domain"
)

const subtree = "**/*"

// Resolver implements ports.GlobResolver on top of doublestar.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// SplitPatterns splits a comma-joined pattern list, dropping blank entries.
func SplitPatterns(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsExclude reports whether p is a negated pattern. The extglob form "!(...)"
// is an include.
func IsExclude(p string) bool {
	return strings.HasPrefix(p, "!") && !strings.HasPrefix(p, "!(")
}

// Preprocess adds a subtree pattern for every exclude that does not already
// cover one, so that excluding a directory excludes everything below it.
func Preprocess(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p)
		if !IsExclude(p) || strings.HasSuffix(p, subtree) {
			continue
		}
		if strings.HasSuffix(p, "/") {
			out = append(out, p+subtree)
		} else {
			out = append(out, p+"/"+subtree)
		}
	}
	return out
}

// Resolve globs every include pattern relative to root, drops matches hit by
// any exclude and returns the deduplicated result in sorted order. Relative
// patterns yield root-relative paths, absolute patterns yield absolute paths.
func (r *Resolver) Resolve(root string, patterns []string) ([]string, error) {
	var includes, excludes []string
	for _, p := range Preprocess(patterns) {
		if IsExclude(p) {
			p = normalize(strings.TrimPrefix(p, "!"))
			if !doublestar.ValidatePattern(p) {
				return nil, domain.WithFields(domain.ErrInvalidPattern, "pattern", "!"+p)
			}
			excludes = append(excludes, p)
			continue
		}
		includes = append(includes, p)
	}

	seen := make(map[string]struct{})
	for _, p := range includes {
		matches, err := r.glob(root, p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if excluded(m, excludes) {
				continue
			}
			seen[m] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	slices.Sort(out)
	return out, nil
}

func (r *Resolver) glob(root, pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, domain.WithFields(domain.ErrInvalidPattern, "pattern", pattern)
		}
		return matches, nil
	}

	pattern = normalize(pattern)
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, domain.WithFields(domain.ErrInvalidPattern, "pattern", pattern)
	}
	for i, m := range matches {
		matches[i] = filepath.FromSlash(m)
	}
	return matches, nil
}

func excluded(match string, excludes []string) bool {
	m := filepath.ToSlash(match)
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, m); ok {
			return true
		}
	}
	return false
}

// normalize converts a relative pattern into the slash separated, dot free
// form io/fs expects.
func normalize(p string) string {
	if filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p))
	}
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" {
		return "."
	}
	return path.Clean(p)
}
