// Package export serializes fitted networks for reporting and reloads
// them for later queries.
package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
	"github.com/dd0wney/cluso-bowtie/pkg/inference"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
	"github.com/dd0wney/cluso-bowtie/pkg/pipeline"
	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a self-contained copy of a graph and its tables. Renderers
// only need Nodes and Edges; reporting tools use Tables.
type Snapshot struct {
	Version   int                    `json:"version" yaml:"version"`
	ID        string                 `json:"id" yaml:"id"`
	RunID     string                 `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	CreatedAt time.Time              `json:"created_at" yaml:"created_at"`
	Nodes     []network.Node         `json:"nodes" yaml:"nodes"`
	Edges     []network.Edge         `json:"edges" yaml:"edges"`
	Records   []bowtie.RiskRecord    `json:"records,omitempty" yaml:"records,omitempty"`
	Tables    []*probability.Table   `json:"tables,omitempty" yaml:"tables,omitempty"`
	Skipped   *network.SkipReport    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Fit       *probability.FitReport `json:"fit,omitempty" yaml:"fit,omitempty"`
}

// FromGraph snapshots an unfitted graph.
func FromGraph(g *network.Graph) *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
		Records:   g.Records(),
	}
}

// FromNetwork snapshots a graph with its tables, if fitted.
func FromNetwork(net *probability.Network) *Snapshot {
	s := FromGraph(net.Graph())
	if net.Fitted() {
		s.Tables = net.Tables()
	}
	return s
}

// FromRun snapshots a pipeline run including its diagnostics.
func FromRun(run *pipeline.Run) *Snapshot {
	s := FromNetwork(run.Network)
	s.RunID = run.ID
	skipped, fit := run.Skipped, run.Fit
	s.Skipped = &skipped
	s.Fit = &fit
	return s
}

// Graph rebuilds the graph structure.
func (s *Snapshot) Graph() (*network.Graph, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return network.NewGraph(s.Nodes, s.Edges, s.Records)
}

// Network rebuilds the network. A snapshot without tables yields an
// unfitted network.
func (s *Snapshot) Network() (*probability.Network, error) {
	g, err := s.Graph()
	if err != nil {
		return nil, err
	}
	if len(s.Tables) == 0 {
		return probability.Unfitted(g), nil
	}
	return probability.NewNetwork(g, s.Tables)
}

// Report is the plain numeric view handed to reporting tools: every
// table and, optionally, query posteriors.
type Report struct {
	SnapshotID string                                   `json:"snapshot_id" yaml:"snapshot_id"`
	Tables     map[string]map[string]map[string]float64 `json:"tables" yaml:"tables"`
	Evidence   inference.Evidence                       `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Posteriors map[string]map[string]float64            `json:"posteriors,omitempty" yaml:"posteriors,omitempty"`
}

// NewReport builds a Report from a network and an optional query result.
func NewReport(snapshotID string, net *probability.Network, evidence inference.Evidence, result inference.Result) Report {
	r := Report{SnapshotID: snapshotID, Evidence: evidence}
	if net.Fitted() {
		r.Tables = net.Plain()
	}
	if result != nil {
		r.Posteriors = result.Table()
	}
	return r
}
