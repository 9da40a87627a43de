// Package config loads the run configuration: a YAML file overlaid on
// defaults, with the command line overriding both.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/telatin/Koverage/pkg/workflow/model"
)

// Minimap configures the aligner invocation.
type Minimap struct {
	// Path is the minimap2 executable.
	Path string `yaml:"path"`
	// Preset is the minimap2 -x preset.
	Preset string `yaml:"preset"`
}

// Config is the full run configuration.
type Config struct {
	// Reference is the FASTA assembly shared by all samples.
	Reference string `yaml:"reference"`
	// Reads is the directory holding the paired read files.
	Reads string `yaml:"reads"`
	// Output is the output root directory.
	Output string `yaml:"output"`
	// Threads is the global thread budget of the run.
	Threads int `yaml:"threads"`
	// KeepTemp keeps the transient per-sample files after aggregation.
	KeepTemp bool `yaml:"keep_temp"`

	Minimap   Minimap         `yaml:"minimap"`
	Resources model.Resources `yaml:"resources"`
	Map       model.MapParams `yaml:"map"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Output:  "results",
		Threads: runtime.NumCPU(),
		Minimap: Minimap{Path: "minimap2", Preset: "sr"},
		Resources: model.Resources{
			Threads: 4,
			MemMB:   8000,
			TimeMin: 120,
		},
		Map: model.MapParams{
			KeepAlignments: true,
			MaxDepth:       300,
			BinWidth:       250,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "unable to read config %s", path)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "unable to parse config %s", path)
	}

	return cfg, nil
}

// Validate checks the configuration is complete and consistent.
func (c Config) Validate() error {
	if c.Reference == "" {
		return errors.New("reference must be set")
	}
	if c.Reads == "" {
		return errors.New("reads directory must be set")
	}
	if c.Output == "" {
		return errors.New("output directory must be set")
	}
	if c.Threads < 1 {
		return errors.New("threads must be greater than 0")
	}

	err := c.Resources.Validate()
	if err != nil {
		return err
	}

	return c.Map.Validate()
}
