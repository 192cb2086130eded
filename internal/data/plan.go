package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/nonsend"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Op is the kind of change a plan step requests.
type Op string

const (
	OpInit   Op = "init"
	OpInsert Op = "insert"
	OpRemove Op = "remove"
)

// Step is one entry of a bootstrap plan.
type Step struct {
	Op     Op             `yaml:"op"`
	Kind   string         `yaml:"kind"`
	Values map[string]any `yaml:"values"`
}

// Plan is an ordered list of non-send resource commands queued at startup.
type Plan struct {
	Steps []Step `yaml:"steps"`
}

func LoadPlan(path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return ParsePlan(raw)
}

func ParsePlan(raw []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	for i, s := range p.Steps {
		switch s.Op {
		case OpInit, OpInsert, OpRemove:
		default:
			return nil, fmt.Errorf("plan step %d: unknown op %q", i, s.Op)
		}
		if s.Kind == "" {
			return nil, fmt.Errorf("plan step %d: missing kind", i)
		}
	}
	return &p, nil
}

// Enqueue pushes every step onto q in order. Steps that fail to resolve are
// skipped; all failures are returned together.
func (p *Plan) Enqueue(kinds *nonsend.Kinds, q ecs.CommandQueue) error {
	var errs error
	for i, s := range p.Steps {
		var err error
		switch s.Op {
		case OpInit:
			err = kinds.Init(q, s.Kind)
		case OpInsert:
			err = kinds.Insert(q, s.Kind, s.Values)
		case OpRemove:
			err = kinds.Remove(q, s.Kind)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("step %d (%s %s): %w", i, s.Op, s.Kind, err))
		}
	}
	return errs
}
