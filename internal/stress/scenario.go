// Package stress drives a gcroots store with concurrent native-style
// retain/release traffic while a host collector runs, and checks that no
// retained object is ever reclaimed.
package stress

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/obinnaokechukwu/gcroots/internal/ctxlog"
)

// ErrInvalidScenario is returned for scenarios that cannot run.
var ErrInvalidScenario = errors.New("gcroots: invalid scenario")

// Scenario describes one stress run.
type Scenario struct {
	Name             string
	Workers          int           // concurrent native callers
	ObjectsPerWorker int           // objects each worker keeps retained
	Iterations       int           // retain/check/release rounds per worker
	CollectEvery     time.Duration // pause between collector cycles
	Shards           int           // 0 or 1 selects a single-lock registry
}

// DefaultScenario returns the scenario used when no file is given.
func DefaultScenario() Scenario {
	return Scenario{
		Name:             "default",
		Workers:          runtime.NumCPU(),
		ObjectsPerWorker: 64,
		Iterations:       10000,
		CollectEvery:     time.Millisecond,
	}
}

// Validate reports whether the scenario can run.
func (s Scenario) Validate() error {
	switch {
	case s.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidScenario, s.Workers)
	case s.ObjectsPerWorker < 1:
		return fmt.Errorf("%w: objects_per_worker must be at least 1, got %d", ErrInvalidScenario, s.ObjectsPerWorker)
	case s.Iterations < 0:
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidScenario, s.Iterations)
	case s.CollectEvery <= 0:
		return fmt.Errorf("%w: collect_every must be positive, got %s", ErrInvalidScenario, s.CollectEvery)
	case s.Shards < 0:
		return fmt.Errorf("%w: shards must not be negative, got %d", ErrInvalidScenario, s.Shards)
	}
	return nil
}

// hclScenarioFile represents the top-level structure of a scenario file for decoding.
type hclScenarioFile struct {
	Scenario *hclScenario `hcl:"scenario,block"`
}

type hclScenario struct {
	Name             string  `hcl:"name,label"`
	Workers          *int    `hcl:"workers,optional"`
	ObjectsPerWorker *int    `hcl:"objects_per_worker,optional"`
	Iterations       *int    `hcl:"iterations,optional"`
	CollectEvery     *string `hcl:"collect_every,optional"`
	Shards           *int    `hcl:"shards,optional"`
}

// evalContext exposes host facts to scenario expressions, e.g.
// `workers = num_cpu * 2`.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"num_cpu": cty.NumberIntVal(int64(runtime.NumCPU())),
		},
	}
}

// LoadFile parses a scenario file. Attributes left out keep their
// DefaultScenario values.
func LoadFile(ctx context.Context, path string) (Scenario, error) {
	ctxlog.FromContext(ctx).Debug("Loading scenario", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Scenario{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(file.Body, path)
}

// Parse parses scenario source held in memory; filename is used in diagnostics.
func Parse(src []byte, filename string) (Scenario, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Scenario{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(file.Body, filename)
}

func decode(body hcl.Body, filename string) (Scenario, error) {
	var parsed hclScenarioFile
	if diags := gohcl.DecodeBody(body, evalContext(), &parsed); diags.HasErrors() {
		return Scenario{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	sc := DefaultScenario()
	if parsed.Scenario == nil {
		return sc, nil
	}
	p := parsed.Scenario
	sc.Name = p.Name
	if p.Workers != nil {
		sc.Workers = *p.Workers
	}
	if p.ObjectsPerWorker != nil {
		sc.ObjectsPerWorker = *p.ObjectsPerWorker
	}
	if p.Iterations != nil {
		sc.Iterations = *p.Iterations
	}
	if p.Shards != nil {
		sc.Shards = *p.Shards
	}
	if p.CollectEvery != nil {
		d, err := time.ParseDuration(*p.CollectEvery)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: collect_every: %v", ErrInvalidScenario, err)
		}
		sc.CollectEvery = d
	}
	return sc, sc.Validate()
}
