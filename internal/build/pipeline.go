package build

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/composer"
	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/manifest"
	"github.com/conneroisu/stitch/internal/output"
	"github.com/conneroisu/stitch/internal/partstore"
	"github.com/conneroisu/stitch/internal/validator"
)

// Result describes a finished build.
type Result struct {
	OutputPath string
	Parts      int
	Stats      output.Stats
	Duration   time.Duration
}

// Pipeline wires the manifest loader, composer, and sink together.
type Pipeline struct {
	manifestFs   afero.Fs
	manifestPath string
	store        partstore.Store
	composer     *composer.Composer
	sink         *output.Sink
	logger       logging.Logger
	metrics      *BuildMetrics
}

// Options configures a Pipeline.
type Options struct {
	// ManifestFs and ManifestPath locate the manifest. It is read fresh on
	// every build.
	ManifestFs   afero.Fs
	ManifestPath string
	Store        partstore.Store
	Sink         *output.Sink
	Logger       logging.Logger
	Dev          bool
	Clock        func() time.Time
}

// NewPipeline creates a build pipeline.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	composerOpts := []composer.Option{composer.WithDev(opts.Dev)}
	if opts.Clock != nil {
		composerOpts = append(composerOpts, composer.WithClock(opts.Clock))
	}

	return &Pipeline{
		manifestFs:   opts.ManifestFs,
		manifestPath: opts.ManifestPath,
		store:        opts.Store,
		composer:     composer.New(opts.Store, logger, composerOpts...),
		sink:         opts.Sink,
		logger:       logger.WithComponent("build"),
		metrics:      NewBuildMetrics(),
	}
}

// Metrics returns the running build totals.
func (p *Pipeline) Metrics() *BuildMetrics {
	return p.metrics
}

// Run performs one full build. Nothing is written unless the manifest
// loads and every fragment resolves.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info(ctx, "Starting build process...")
	op := logging.StartOperation(p.logger, "build")

	result, err := p.run(ctx)
	if err != nil {
		p.metrics.RecordBuild(op.Elapsed(), err)
		errors.Report(ctx, p.logger, err, "Build failed")
		return nil, err
	}

	result.Duration = op.End(ctx)
	p.metrics.RecordBuild(result.Duration, nil)

	p.logger.Success(ctx, "Built prompt file: "+result.OutputPath)
	p.logger.Info(ctx, "Statistics",
		"lines", humanize.Comma(int64(result.Stats.Lines)),
		"characters", humanize.Comma(int64(result.Stats.Characters)),
		"words", humanize.Comma(int64(result.Stats.Words)),
		"size", humanize.Bytes(uint64(result.Stats.Bytes)),
	)

	return result, nil
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	m, err := manifest.Load(p.manifestFs, p.manifestPath)
	if err != nil {
		return nil, err
	}

	text, err := p.composer.Compose(ctx, m)
	if err != nil {
		return nil, err
	}

	stats, err := p.sink.Write(ctx, text)
	if err != nil {
		return nil, err
	}

	return &Result{
		OutputPath: p.sink.Path(),
		Parts:      len(m.Parts),
		Stats:      stats,
	}, nil
}

// CheckReport is the outcome of a dry run.
type CheckReport struct {
	Parts   int
	Missing []string
	Stats   output.Stats
}

// Check loads the manifest and composes it without writing. Missing lists
// every absent part file, not just the first.
func (p *Pipeline) Check(ctx context.Context) (*CheckReport, error) {
	m, err := manifest.Load(p.manifestFs, p.manifestPath)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{
		Parts:   len(m.Parts),
		Missing: validator.Missing(m, p.store),
	}

	text, err := p.composer.Compose(ctx, m)
	if err != nil {
		return report, err
	}
	report.Stats = output.Measure(text)

	return report, nil
}
