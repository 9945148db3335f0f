// Package inference runs exact probabilistic queries against a fitted
// bowtie network.
package inference

import (
	"time"

	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/metrics"
	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// Evidence maps node ids to observed states.
type Evidence map[string]probability.State

// Distribution is a posterior over one node's states.
type Distribution struct {
	Node          string               `json:"node" yaml:"node"`
	States        probability.StateSet `json:"states" yaml:"states"`
	Probabilities []float64            `json:"probabilities" yaml:"probabilities"`
}

// P returns the probability of s, zero if s is not a state of the node.
func (d Distribution) P(s probability.State) float64 {
	i := d.States.Index(s)
	if i < 0 {
		return 0
	}
	return d.Probabilities[i]
}

// Top returns the probability of the highest-risk state.
func (d Distribution) Top() float64 {
	return d.P(d.States.Top())
}

// Map returns state name to probability.
func (d Distribution) Map() map[string]float64 {
	out := make(map[string]float64, len(d.States))
	for i, s := range d.States {
		out[string(s)] = d.Probabilities[i]
	}
	return out
}

// Result maps queried node ids to their posteriors.
type Result map[string]Distribution

// Table returns the result as plain nested maps for export.
func (r Result) Table() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(r))
	for id, d := range r {
		out[id] = d.Map()
	}
	return out
}

// Engine answers queries against one compiled network. It is safe for
// concurrent use.
type Engine struct {
	net     *probability.Network
	backend Backend
	model   Model
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend replaces the default VariableElimination backend.
func WithBackend(b Backend) Option {
	return func(e *Engine) {
		if b != nil {
			e.backend = b
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// New compiles net. An unfitted network is rejected with
// ErrUnfittedNetwork.
func New(net *probability.Network, opts ...Option) (*Engine, error) {
	e := &Engine{
		net:     net,
		backend: VariableElimination{},
		logger:  logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if !net.Fitted() {
		return nil, ErrUnfittedNetwork
	}

	model, err := e.backend.Compile(net)
	if err != nil {
		return nil, err
	}
	e.model = model
	e.logger = e.logger.With(logging.Component("inference"), logging.String("backend", e.backend.Name()))
	return e, nil
}

// Infer compiles net and runs a single query.
func Infer(net *probability.Network, evidence Evidence, targets ...string) (Result, error) {
	e, err := New(net)
	if err != nil {
		return nil, err
	}
	return e.Query(evidence, targets...)
}

// Network returns the network the engine was compiled from.
func (e *Engine) Network() *probability.Network {
	return e.net
}

// Backend returns the name of the backend in use.
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// Query returns the posterior of every target given evidence. With no
// targets every node is queried. Evidence is never modified.
func (e *Engine) Query(evidence Evidence, targets ...string) (Result, error) {
	start := time.Now()
	result, err := e.query(evidence, targets)
	e.metrics.RecordQuery(e.backend.Name(), err, time.Since(start))
	if err != nil {
		e.logger.Debug("Query failed",
			logging.Operation("query"),
			logging.Error(err),
			logging.Int("evidence", len(evidence)))
		return nil, err
	}
	return result, nil
}

// Marginal queries a single node.
func (e *Engine) Marginal(target string, evidence Evidence) (Distribution, error) {
	r, err := e.Query(evidence, target)
	if err != nil {
		return Distribution{}, err
	}
	return r[target], nil
}

func (e *Engine) query(evidence Evidence, targets []string) (Result, error) {
	if err := e.validate(evidence); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		targets = e.net.Order()
	}

	result := make(Result, len(targets))
	for _, id := range targets {
		states, ok := e.net.States(id)
		if !ok {
			return nil, &QueryError{Op: "query", Node: id, Cause: ErrUnknownNode}
		}
		probs, err := e.model.Marginal(id, evidence)
		if err != nil {
			return nil, &QueryError{Op: "query", Node: id, Cause: err}
		}
		result[id] = Distribution{Node: id, States: states, Probabilities: probs}
	}
	return result, nil
}

func (e *Engine) validate(evidence Evidence) error {
	for id, s := range evidence {
		states, ok := e.net.States(id)
		if !ok {
			return &QueryError{Op: "evidence", Node: id, State: string(s), Cause: ErrUnknownNode}
		}
		if !states.Contains(s) {
			return &QueryError{Op: "evidence", Node: id, State: string(s), Cause: ErrInvalidState}
		}
	}
	return nil
}
