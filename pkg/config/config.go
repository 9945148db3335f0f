// Package config loads analysis settings from YAML over built-in defaults.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dd0wney/cluso-bowtie/pkg/inference"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// Config holds every tunable of an analysis run.
type Config struct {
	LogLevel  string          `yaml:"log_level" validate:"oneof=debug info warn error"`
	DAG       DAGConfig       `yaml:"dag"`
	CPT       CPTConfig       `yaml:"cpt"`
	Inference InferenceConfig `yaml:"inference"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Cache     CacheConfig     `yaml:"cache"`
}

type DAGConfig struct {
	CyclePolicy     string `yaml:"cycle_policy" validate:"oneof=first_seen frequency"`
	MaxSkipExamples int    `yaml:"max_skip_examples" validate:"min=0"`
}

type CPTConfig struct {
	Mode          string `yaml:"mode" validate:"oneof=templated learned"`
	MinSamples    int    `yaml:"min_samples" validate:"min=1"`
	Workers       int    `yaml:"workers" validate:"min=0"`
	MaxTableCells int    `yaml:"max_table_cells" validate:"min=0"`
	TemplatesFile string `yaml:"templates_file"`
	Scale         string `yaml:"scale" validate:"oneof=auto unit ordinal"`
}

type InferenceConfig struct {
	Backend string `yaml:"backend" validate:"oneof=variable_elimination"`
}

type AnalysisConfig struct {
	// Target is the node ranked by critical-path analysis. Empty selects
	// the single terminal consequence.
	Target      string `yaml:"target"`
	Parallelism int    `yaml:"parallelism" validate:"min=0"`
}

type CacheConfig struct {
	// IDCacheSize bounds the node identifier cache. Zero disables it.
	IDCacheSize int `yaml:"id_cache_size" validate:"min=0"`
}

// Default returns the configuration used when no file is given. Zero
// worker and parallelism counts mean one per CPU.
func Default() Config {
	return Config{
		LogLevel: "info",
		DAG: DAGConfig{
			CyclePolicy:     network.FirstSeen.String(),
			MaxSkipExamples: network.MaxSkipExamples,
		},
		CPT: CPTConfig{
			Mode:          probability.Templated.String(),
			MinSamples:    probability.DefaultMinSamples,
			MaxTableCells: probability.DefaultMaxTableCells,
			Scale:         probability.ScaleAuto.String(),
		},
		Inference: InferenceConfig{
			Backend: inference.BackendVariableElimination,
		},
		Cache: CacheConfig{
			IDCacheSize: 4096,
		},
	}
}

// Load reads a YAML file over Default and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("failed to load config from %q: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Config{}, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed for %q: %w", path, err)
	}
	return cfg, nil
}
