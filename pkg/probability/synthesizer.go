package probability

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
	"github.com/dd0wney/cluso-bowtie/pkg/parallel"
)

// Mode selects how non-root tables are produced.
type Mode int

const (
	// Templated uses the TemplateProvider for every table.
	Templated Mode = iota
	// Learned estimates non-root tables from record ratings.
	Learned
)

func (m Mode) String() string {
	switch m {
	case Templated:
		return "templated"
	case Learned:
		return "learned"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses "templated" or "learned".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "templated", "template", "":
		return Templated, nil
	case "learned", "learn":
		return Learned, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

const (
	// DefaultMinSamples is the fewest usable records learned mode accepts
	// before falling back to templates.
	DefaultMinSamples = 10
	// DefaultMaxTableCells bounds the size of a single table.
	DefaultMaxTableCells = 1 << 20
)

// FitReport describes how a network was fitted.
type FitReport struct {
	Requested    Mode `json:"requested" yaml:"requested"`
	Mode         Mode `json:"mode" yaml:"mode"`
	Samples      int  `json:"samples" yaml:"samples"`
	FellBack     bool `json:"fell_back" yaml:"fell_back"`
	LearnedNodes int  `json:"learned_nodes" yaml:"learned_nodes"`
	Clamped      int  `json:"clamped" yaml:"clamped"`
}

// Degraded reports whether learning was requested but templates were used.
func (r FitReport) Degraded() bool {
	return r.FellBack
}

// Synthesizer produces a table for every node of a graph.
type Synthesizer struct {
	mode       Mode
	minSamples int
	workers    int
	maxCells   int
	templates  TemplateProvider
	disc       Discretizer
	logger     logging.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

func WithMode(m Mode) Option {
	return func(s *Synthesizer) { s.mode = m }
}

func WithMinSamples(n int) Option {
	return func(s *Synthesizer) { s.minSamples = n }
}

// WithWorkers sets how many tables are built concurrently.
func WithWorkers(n int) Option {
	return func(s *Synthesizer) { s.workers = n }
}

// WithMaxTableCells bounds states × parent assignments per table. Zero
// disables the check.
func WithMaxTableCells(n int) Option {
	return func(s *Synthesizer) { s.maxCells = n }
}

func WithTemplates(p TemplateProvider) Option {
	return func(s *Synthesizer) {
		if p != nil {
			s.templates = p
		}
	}
}

// WithScale sets how ratings are read in learned mode.
func WithScale(sc Scale) Option {
	return func(s *Synthesizer) { s.disc = Discretizer{Scale: sc} }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Synthesizer) { s.logger = logging.OrNop(l) }
}

// NewSynthesizer returns a templated synthesizer with default templates,
// the auto rating scale and one worker per CPU.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		mode:       Templated,
		minSamples: DefaultMinSamples,
		workers:    runtime.GOMAXPROCS(0),
		maxCells:   DefaultMaxTableCells,
		templates:  DefaultTemplates(),
		disc:       Discretizer{Scale: ScaleAuto},
		logger:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit builds one table per node. In learned mode a shortage of usable
// records degrades to templates with a warning rather than failing.
func (s *Synthesizer) Fit(g *network.Graph) (*Network, FitReport, error) {
	report := FitReport{Requested: s.mode, Mode: s.mode}
	logger := s.logger.With(logging.Component("cpt"))
	timer := logging.StartTimer(logger, "cpt synthesis", logging.String("mode", s.mode.String()))

	order, err := g.TopologicalOrder()
	if err != nil {
		timer.EndError(err)
		return nil, report, err
	}

	states := s.stateSets(g, order)
	for _, id := range order {
		cards := make([]int, 0, len(g.Parents(id)))
		for _, p := range g.Parents(id) {
			cards = append(cards, len(states[p]))
		}
		if cells, ok := tableCells(len(states[id]), cards, s.maxCells); !ok {
			err := &TableError{Node: id, Cause: fmt.Errorf("%w: %d cells exceeds %d", ErrTableTooLarge, cells, s.maxCells)}
			timer.EndError(err)
			return nil, report, err
		}
	}

	var obs *observations
	if s.mode == Learned {
		obs = collect(g, states, s.disc)
		report.Samples = obs.usable
		report.Clamped = obs.clamped
		if obs.clamped > 0 {
			logging.Log(logger, logging.WarnLevel, "Clamped out-of-range ratings",
				logging.Count(obs.clamped),
				logging.String("scale", s.disc.Scale.String()))
		}
		if obs.usable < s.minSamples {
			logging.Log(logger, logging.WarnLevel, "Too few samples to learn tables, falling back to templates",
				logging.Int("samples", obs.usable),
				logging.Int("min_samples", s.minSamples))
			report.Mode = Templated
			report.FellBack = true
			obs = nil
		}
	}

	tables := make([]*Table, len(order))
	learned := make([]bool, len(order))
	err = parallel.ForEach(s.workers, len(order), func(i int) error {
		id := order[i]
		node, _ := g.Node(id)
		t := s.emptyTable(g, id, states)
		if len(t.Parents) == 0 {
			t.Rows = [][]float64{s.templates.RootDistribution(node.Type).Probabilities}
		} else {
			s.templateRows(node.Type, t)
			if obs != nil {
				learned[i] = obs.estimate(t)
			}
		}
		if err := t.Validate(DefaultTolerance); err != nil {
			return &TableError{Node: id, Cause: err}
		}
		tables[i] = t
		return nil
	})
	if err != nil {
		timer.EndError(err)
		return nil, report, err
	}
	for _, ok := range learned {
		if ok {
			report.LearnedNodes++
		}
	}

	net, err := NewNetwork(g, tables)
	if err != nil {
		timer.EndError(err)
		return nil, report, err
	}
	timer.End()
	return net, report, nil
}

// stateSets assigns ThreeLevel to every non-root node and the template
// prior's states to roots.
func (s *Synthesizer) stateSets(g *network.Graph, order []string) map[string]StateSet {
	states := make(map[string]StateSet, len(order))
	for _, id := range order {
		if len(g.Parents(id)) == 0 {
			node, _ := g.Node(id)
			states[id] = s.templates.RootDistribution(node.Type).States
			continue
		}
		states[id] = ThreeLevel
	}
	return states
}

func (s *Synthesizer) emptyTable(g *network.Graph, id string, states map[string]StateSet) *Table {
	parents := g.Parents(id)
	t := &Table{
		Node:   id,
		States: append(StateSet(nil), states[id]...),
	}
	if len(parents) > 0 {
		t.Parents = parents
		t.ParentStates = make([]StateSet, len(parents))
		for i, p := range parents {
			t.ParentStates[i] = append(StateSet(nil), states[p]...)
		}
	}
	return t
}

// templateRows fills every row with the mean of the per-parent template
// rows selected by each parent's risk level.
func (s *Synthesizer) templateRows(nt network.NodeType, t *Table) {
	n := t.RowCount()
	t.Rows = make([][]float64, n)
	for r := 0; r < n; r++ {
		row := make([]float64, len(t.States))
		for _, ps := range t.ParentAssignment(r) {
			for k, p := range s.templates.ConditionalRow(nt, RiskLevel(ps)) {
				row[k] += p
			}
		}
		normalize(row)
		t.Rows[r] = row
	}
}
