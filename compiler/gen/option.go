package gen

import (
	"github.com/rs/zerolog"
)

// Config configures a generation pipeline.
type Config struct {
	// OutputDir is where generated files are written.
	OutputDir string

	// SchemaDir is the directory the schema set was loaded from,
	// passed through to generators for dependency annotations.
	SchemaDir string

	// Parallel runs selected generators concurrently when more than
	// one is selected. Defaults to true.
	Parallel bool

	// DryRun skips disk writes in WriteFiles.
	DryRun bool

	// Filter restricts the run to the named generators. Empty means
	// all registered generators.
	Filter []string

	// Values is the opaque configuration handed to every generator.
	Values map[string]any

	// Logger receives pipeline progress. Defaults to a nop logger.
	Logger zerolog.Logger
}

// Option configures a pipeline.
type Option func(*Config) error

// WithOutputDir sets the output directory.
func WithOutputDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("OutputDir", nil, "output directory cannot be empty")
		}
		c.OutputDir = dir
		return nil
	}
}

// WithSchemaDir sets the schema source directory.
func WithSchemaDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("SchemaDir", nil, "schema directory cannot be empty")
		}
		c.SchemaDir = dir
		return nil
	}
}

// WithParallel toggles concurrent generator execution.
func WithParallel(parallel bool) Option {
	return func(c *Config) error {
		c.Parallel = parallel
		return nil
	}
}

// WithDryRun toggles dry-run mode: generation runs, disk writes do not.
func WithDryRun(dryRun bool) Option {
	return func(c *Config) error {
		c.DryRun = dryRun
		return nil
	}
}

// WithGenerators restricts the run to the named generators.
func WithGenerators(names ...string) Option {
	return func(c *Config) error {
		c.Filter = append(c.Filter, names...)
		return nil
	}
}

// WithConfig sets the opaque configuration handed to generators.
func WithConfig(values map[string]any) Option {
	return func(c *Config) error {
		c.Values = values
		return nil
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// Apply applies options to the config. It returns the first error
// encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// defaultConfig returns the baseline pipeline configuration.
func defaultConfig() *Config {
	return &Config{
		Parallel: true,
		Logger:   zerolog.Nop(),
	}
}
