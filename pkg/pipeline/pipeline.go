// Package pipeline runs one analysis: normalize records, build the graph,
// enforce acyclicity and fit probability tables.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
	"github.com/dd0wney/cluso-bowtie/pkg/config"
	"github.com/dd0wney/cluso-bowtie/pkg/inference"
	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/metrics"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// Run is the product of one analysis run. Nothing in it is modified after
// Execute returns.
type Run struct {
	ID      string
	Graph   *network.Graph
	Skipped network.SkipReport
	Network *probability.Network
	Fit     probability.FitReport

	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures Execute.
type Option func(*options)

type options struct {
	cfg       config.Config
	logger    logging.Logger
	metrics   *metrics.Registry
	cache     *network.IDCache
	links     []network.Edge
	problem   string
	templates probability.TemplateProvider
}

func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(o *options) { o.metrics = m }
}

// WithIDCache shares a node identifier cache across runs. Without it each
// run creates its own when the configured size is positive.
func WithIDCache(c *network.IDCache) Option {
	return func(o *options) { o.cache = c }
}

// WithLinks merges externally suggested edges before cycle pruning.
func WithLinks(links []network.Edge) Option {
	return func(o *options) { o.links = links }
}

// WithProblem restricts the run to records about one central problem.
func WithProblem(name string) Option {
	return func(o *options) { o.problem = name }
}

// WithTemplates overrides the configured template provider.
func WithTemplates(p probability.TemplateProvider) Option {
	return func(o *options) { o.templates = p }
}

// Execute normalizes a raw table and runs the analysis on it.
func Execute(ctx context.Context, rows []bowtie.RawRecord, opts ...Option) (*Run, error) {
	records, err := bowtie.Normalize(rows)
	if err != nil {
		return nil, err
	}
	return ExecuteRecords(ctx, records, opts...)
}

// ExecuteRecords runs the analysis on already normalized records.
func ExecuteRecords(ctx context.Context, records []bowtie.RiskRecord, opts ...Option) (*Run, error) {
	o := options{cfg: config.Default(), logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	run := &Run{
		ID:      uuid.New().String(),
		cfg:     o.cfg,
		metrics: o.metrics,
	}
	run.logger = o.logger.With(logging.RunID(run.ID))
	logger := run.logger.With(logging.Component("pipeline"))

	start := time.Now()
	err := run.execute(ctx, records, o)
	o.metrics.RecordRun(err, time.Since(start))
	if err != nil {
		logger.Error("Analysis run failed", logging.Error(err))
		return nil, err
	}

	logger.Info("Analysis run complete",
		logging.Int("records", len(run.Graph.Records())),
		logging.Int("nodes", run.Graph.NodeCount()),
		logging.Int("edges", run.Graph.EdgeCount()),
		logging.Int("skipped_edges", run.Skipped.Total),
		logging.String("mode", run.Fit.Mode.String()),
		logging.Latency(time.Since(start)))
	return run, nil
}

func (r *Run) execute(ctx context.Context, records []bowtie.RiskRecord, o options) error {
	cfg := o.cfg

	cache := o.cache
	if cache == nil && cfg.Cache.IDCacheSize > 0 {
		var err error
		if cache, err = network.NewIDCache(cfg.Cache.IDCacheSize); err != nil {
			return err
		}
	}
	buildOpts := []network.BuildOption{network.WithIDCache(cache)}
	if o.problem != "" {
		buildOpts = append(buildOpts, network.WithProblem(o.problem))
	}

	g, err := network.Build(records, buildOpts...)
	if err != nil {
		return err
	}
	if len(o.links) > 0 {
		if g, err = g.WithLinks(o.links); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	policy, err := network.ParseCyclePolicy(cfg.DAG.CyclePolicy)
	if err != nil {
		return err
	}
	r.Graph, r.Skipped = network.EnsureAcyclic(g,
		network.WithCyclePolicy(policy),
		network.WithMaxSkipExamples(cfg.DAG.MaxSkipExamples),
		network.WithLogger(r.logger))
	if err := ctx.Err(); err != nil {
		return err
	}

	synth, err := r.synthesizer(o)
	if err != nil {
		return err
	}
	fitStart := time.Now()
	net, report, err := synth.Fit(r.Graph)
	if err != nil {
		return err
	}
	r.Network, r.Fit = net, report

	o.metrics.RecordGraph(len(r.Graph.Records()), r.Graph.NodeCount(), r.Graph.EdgeCount(), r.Skipped.Total)
	o.metrics.RecordFit(report.Mode.String(), report.FellBack, report.Clamped, time.Since(fitStart))
	return nil
}

func (r *Run) synthesizer(o options) (*probability.Synthesizer, error) {
	cfg := o.cfg.CPT
	mode, err := probability.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	scale, err := probability.ParseScale(cfg.Scale)
	if err != nil {
		return nil, err
	}

	templates := o.templates
	if templates == nil && cfg.TemplatesFile != "" {
		loaded, err := probability.LoadTemplates(cfg.TemplatesFile)
		if err != nil {
			return nil, err
		}
		templates = loaded
	}

	opts := []probability.Option{
		probability.WithMode(mode),
		probability.WithScale(scale),
		probability.WithMinSamples(cfg.MinSamples),
		probability.WithMaxTableCells(cfg.MaxTableCells),
		probability.WithTemplates(templates),
		probability.WithLogger(r.logger),
	}
	if cfg.Workers > 0 {
		opts = append(opts, probability.WithWorkers(cfg.Workers))
	}
	return probability.NewSynthesizer(opts...), nil
}

// Engine compiles the fitted network with the configured backend.
func (r *Run) Engine() (*inference.Engine, error) {
	backend, err := inference.BackendByName(r.cfg.Inference.Backend)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", r.ID, err)
	}
	return inference.New(r.Network,
		inference.WithBackend(backend),
		inference.WithLogger(r.logger),
		inference.WithMetrics(r.metrics))
}

// Degraded reports whether edges were pruned or learning fell back to
// templates.
func (r *Run) Degraded() bool {
	return r.Skipped.Degraded() || r.Fit.Degraded()
}
