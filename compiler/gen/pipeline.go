package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/schema"
)

// schemaKinds are the kinds a generator can declare support for.
var schemaKinds = []schema.Kind{
	schema.KindEntity,
	schema.KindEnum,
	schema.KindPage,
	schema.KindApp,
}

// Pipeline selects applicable generators for a schema set and executes
// them, collecting outputs and partial failures into one Result.
type Pipeline struct {
	registry *Registry
	config   *Config
}

// NewPipeline creates a Pipeline over the given registry.
func NewPipeline(registry *Registry, opts ...Option) (*Pipeline, error) {
	if registry == nil {
		return nil, NewConfigError("Registry", nil, "registry cannot be nil")
	}
	cfg := defaultConfig()
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}
	return &Pipeline{registry: registry, config: cfg}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *Config {
	return p.config
}

// Result aggregates one Generate call.
type Result struct {
	// RunID uniquely identifies this generation run.
	RunID string

	// Files concatenates the outputs of all successful generators in
	// execution order. Each generator's files stay grouped.
	Files []schemaforge.GeneratedFile

	// GeneratorNames lists the generators that produced without error,
	// in execution order.
	GeneratorNames []string

	// Errors holds captured per-generator failures in completion
	// order. A non-empty Errors with a nil Generate error means the
	// batch partially succeeded; callers must inspect it.
	Errors []error

	// Duration is the wall time of the whole batch.
	Duration time.Duration
}

// Generate runs all applicable generators over the set. A generator is
// applicable when it passes the optional name filter and supports at
// least one kind that is present and non-empty in the set.
//
// One generator's failure never aborts the batch: its error is captured
// in Result.Errors and the remaining generators still run. Zero
// applicable generators yield an empty, error-free Result.
func (p *Pipeline) Generate(ctx context.Context, set *schema.Set) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	selected := p.selectGenerators(set)
	logger := p.config.Logger.With().Str("run_id", result.RunID).Logger()
	logger.Debug().Int("selected", len(selected)).Msg("starting generation")

	if len(selected) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	gctx := &schemaforge.Context{
		Set:       set,
		OutputDir: p.config.OutputDir,
		SchemaDir: p.config.SchemaDir,
		Config:    p.config.Values,
	}

	// One slot per selected generator keeps files grouped and lets
	// parallel mode preserve execution order in the result.
	slots := make([]struct {
		files []schemaforge.GeneratedFile
		err   error
	}, len(selected))

	if p.config.Parallel && len(selected) > 1 {
		var mu sync.Mutex
		errg, gtx := errgroup.WithContext(ctx)
		errg.SetLimit(runtime.GOMAXPROCS(0))
		for i, g := range selected {
			i, g := i, g
			errg.Go(func() error {
				files, err := runGenerator(gtx, g, gctx)
				slots[i].files = files
				if err != nil {
					mu.Lock()
					result.Errors = append(result.Errors, err)
					mu.Unlock()
					slots[i].err = err
				}
				return nil
			})
		}
		// Goroutines never return errors; Wait only synchronizes.
		_ = errg.Wait()
	} else {
		for i, g := range selected {
			files, err := runGenerator(ctx, g, gctx)
			slots[i].files = files
			if err != nil {
				result.Errors = append(result.Errors, err)
				slots[i].err = err
			}
		}
	}

	for i, g := range selected {
		if slots[i].err != nil {
			logger.Warn().Str("generator", g.Name()).Err(slots[i].err).Msg("generator failed")
			continue
		}
		result.Files = append(result.Files, slots[i].files...)
		result.GeneratorNames = append(result.GeneratorNames, g.Name())
	}
	result.Duration = time.Since(start)
	logger.Debug().
		Int("files", len(result.Files)).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("generation finished")
	return result, nil
}

// GenerateChanges would regenerate only the files affected by the given
// changes. It is intentionally unimplemented: callers must fall back to
// Generate explicitly rather than rely on a silent full run.
func (p *Pipeline) GenerateChanges(_ context.Context, _ []*schemaforge.Change) (*Result, error) {
	return nil, fmt.Errorf("incremental generation: %w", schemaforge.ErrNotImplemented)
}

// WriteFiles writes a result's files under the configured output
// directory, creating parent directories as needed. In dry-run mode it
// logs the paths and writes nothing.
func (p *Pipeline) WriteFiles(result *Result) error {
	for _, f := range result.Files {
		target := filepath.Join(p.config.OutputDir, filepath.FromSlash(f.Path))
		if p.config.DryRun {
			p.config.Logger.Info().Str("path", target).Msg("dry run: skipping write")
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// selectGenerators returns the applicable generators in registration
// order.
func (p *Pipeline) selectGenerators(set *schema.Set) []schemaforge.Generator {
	var selected []schemaforge.Generator
	for _, g := range p.registry.Generators() {
		if len(p.config.Filter) > 0 && !slices.Contains(p.config.Filter, g.Name()) {
			continue
		}
		if !supportsAny(g, set) {
			continue
		}
		selected = append(selected, g)
	}
	return selected
}

// supportsAny reports whether the set contains a non-empty kind the
// generator supports.
func supportsAny(g schemaforge.Generator, set *schema.Set) bool {
	for _, kind := range schemaKinds {
		if g.Supports(kind) && !set.Empty(kind) {
			return true
		}
	}
	return false
}

// runGenerator executes one generator, converting panics and errors into
// a GenerationError so the batch can continue.
func runGenerator(ctx context.Context, g schemaforge.Generator, gctx *schemaforge.Context) (files []schemaforge.GeneratedFile, err error) {
	defer func() {
		if v := recover(); v != nil {
			files = nil
			err = &GenerationError{
				Generator: g.Name(),
				Message:   fmt.Sprintf("panic: %v", v),
			}
		}
	}()
	files, gerr := g.Generate(ctx, gctx)
	if gerr != nil {
		return nil, &GenerationError{Generator: g.Name(), Cause: gerr}
	}
	return files, nil
}
