package ports

// GlobResolver expands include and exclude patterns into concrete paths.
//
//go:generate mockgen -source=glob.go -destination=mocks/mock_glob.go -package=mocks
type GlobResolver interface {
	// Resolve returns the deduplicated, sorted set of paths matched by the
	// include patterns and not matched by any exclude pattern. Relative
	// patterns are resolved against root.
	Resolve(root string, patterns []string) ([]string, error)
}
