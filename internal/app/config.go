package app

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ProjectRoot is the project to build. Empty means auto-detect by
	// walking up from the working directory looking for a manifest.
	ProjectRoot string
	// ManifestPath overrides the default manifest location.
	ManifestPath string
	// CleanOnly removes build artifacts and exits without building.
	CleanOnly bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates and returns the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}
