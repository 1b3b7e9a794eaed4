package ports

import "go.trai.ch/fsroute/internal/core/domain"

//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks

// GlobalConfigLoader loads the process configuration.
type GlobalConfigLoader interface {
	// Load reads the config file at path (optional, empty to skip) and the environment,
	// then applies overrides keyed by configuration key.
	Load(path string, overrides map[string]any) (*domain.Config, error)
}

// DirectoryConfigLoader loads directory config resources.
type DirectoryConfigLoader interface {
	// Load decodes the config resource at path.
	Load(path string) (*domain.DirectoryConfig, error)
}
