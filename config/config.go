// Package config loads experiment files. An experiment names a lab, the run
// length, the seeds and the parameter values to sweep.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the experiment file.
const (
	EnvRunLength = "SIMLAB_RUN_LENGTH"
	EnvSeeds     = "SIMLAB_SEEDS"
	EnvLogLevel  = "SIMLAB_LOG_LEVEL"
)

// DefaultSeed is used when an experiment lists no seed.
const DefaultSeed uint64 = 400167784

// ErrInvalidExperiment reports an experiment that cannot be run.
var ErrInvalidExperiment = errors.New("config: invalid experiment")

// Experiment describes a set of runs of one lab.
type Experiment struct {
	Lab       string               `yaml:"lab"`
	RunLength uint64               `yaml:"runLength"`
	BlipRate  uint64               `yaml:"blipRate"`
	LogLevel  string               `yaml:"logLevel"`
	Seeds     []uint64             `yaml:"seeds"`
	Params    map[string]float64   `yaml:"params"`
	Sweep     map[string][]float64 `yaml:"sweep"`
}

// RunPoint is one run of an experiment.
type RunPoint struct {
	Index  int
	Seed   uint64
	Params map[string]float64
}

// Load reads an experiment file, applies the environment overrides and
// validates the result. Variables in a .env file in the working directory
// are used when the process environment does not set them.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file: %w", err)
	}

	exp, err := Parse(data)
	if err != nil {
		return nil, err
	}

	env, err := Environment(".env")
	if err != nil {
		return nil, err
	}

	if err := exp.ApplyEnv(env); err != nil {
		return nil, err
	}

	if err := exp.Validate(); err != nil {
		return nil, err
	}

	return exp, nil
}

// Parse decodes an experiment without validating it.
func Parse(data []byte) (*Experiment, error) {
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse experiment file: %w", err)
	}

	return &exp, nil
}

// Environment returns the overrides visible to the process: the variables
// of envFile, if it exists, overlaid by the process environment.
func Environment(envFile string) (map[string]string, error) {
	env := map[string]string{}

	if _, err := os.Stat(envFile); err == nil {
		env, err = godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	for _, key := range []string{EnvRunLength, EnvSeeds, EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	return env, nil
}

// ApplyEnv overrides the run length, seeds and log level.
func (e *Experiment) ApplyEnv(env map[string]string) error {
	if v, ok := env[EnvRunLength]; ok && v != "" {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidExperiment, EnvRunLength, v)
		}

		e.RunLength = n
	}

	if v, ok := env[EnvSeeds]; ok && v != "" {
		seeds, err := parseSeeds(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidExperiment, EnvSeeds, v)
		}

		e.Seeds = seeds
	}

	if v, ok := env[EnvLogLevel]; ok && v != "" {
		e.LogLevel = v
	}

	return nil
}

func parseSeeds(s string) ([]uint64, error) {
	var seeds []uint64

	for _, field := range strings.Split(s, ",") {
		seed, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, err
		}

		seeds = append(seeds, seed)
	}

	return seeds, nil
}

// Validate checks the experiment and fills in the default seed.
func (e *Experiment) Validate() error {
	if e.Lab == "" {
		return fmt.Errorf("%w: lab is required", ErrInvalidExperiment)
	}

	if e.RunLength == 0 {
		return fmt.Errorf("%w: runLength must be greater than 0", ErrInvalidExperiment)
	}

	if len(e.Seeds) == 0 {
		e.Seeds = []uint64{DefaultSeed}
	}

	for name, values := range e.Sweep {
		if len(values) == 0 {
			return fmt.Errorf("%w: sweep %s has no value", ErrInvalidExperiment, name)
		}
	}

	return nil
}

// Points expands the experiment into runs: every seed with every
// combination of sweep values. Runs are ordered by seed first, then by the
// sweep parameters in name order. Each run owns its parameter map.
func (e *Experiment) Points() ([]RunPoint, error) {
	names := make([]string, 0, len(e.Sweep))
	for name := range e.Sweep {
		names = append(names, name)
	}

	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		var next []map[string]float64

		for _, combo := range combos {
			for _, v := range e.Sweep[name] {
				c := make(map[string]float64, len(combo)+1)
				for k, x := range combo {
					c[k] = x
				}

				c[name] = v
				next = append(next, c)
			}
		}

		combos = next
	}

	points := make([]RunPoint, 0, len(e.Seeds)*len(combos))

	for _, seed := range e.Seeds {
		for _, combo := range combos {
			var params map[string]float64
			if err := deepcopy.Copy(&params, e.Params); err != nil {
				return nil, fmt.Errorf("failed to copy params: %w", err)
			}

			if params == nil {
				params = make(map[string]float64, len(combo))
			}

			for k, v := range combo {
				params[k] = v
			}

			points = append(points, RunPoint{
				Index:  len(points),
				Seed:   seed,
				Params: params,
			})
		}
	}

	return points, nil
}
