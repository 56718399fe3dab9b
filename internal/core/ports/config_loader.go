package ports

import "go.trai.ch/tend/internal/core/domain"

// ConfigLoader defines the interface for loading rule definitions.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the rules file starting at cwd and returns its rules.
	Load(cwd string) ([]domain.RuleSpec, error)

	// LoadFile reads the rules file at path.
	LoadFile(path string) ([]domain.RuleSpec, error)
}
