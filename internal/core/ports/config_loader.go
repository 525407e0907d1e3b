package ports

import "go.trai.ch/sitepipe/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file and environment for the project rooted at cwd
	// and returns the task graph, watch rules and pipelines.
	// Overrides take precedence over both the file and the environment.
	Load(cwd string, overrides domain.Overrides) (*domain.Project, error)
}
