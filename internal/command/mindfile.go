package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/goaltree/internal/goal"
	"github.com/joeycumines/goaltree/internal/mind"
)

// MindFile is the YAML definition of an agent and its root goals.
//
//	agent:
//	  name: villager
//	  memory:
//	    hunger: 8
//	goals:
//	  - class: goals.Ensure
//	    params:
//	      key: hunger
//	      value: 0
//	      op: eat
type MindFile struct {
	Agent AgentSpec           `yaml:"agent"`
	Goals []*goal.Description `yaml:"goals"`
}

// AgentSpec describes the agent a mind acts for.
type AgentSpec struct {
	Name   string         `yaml:"name"`
	Memory map[string]any `yaml:"memory"`
}

// ParseMindFile decodes a mind file. Unknown fields are rejected.
func ParseMindFile(r io.Reader) (*MindFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f MindFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty mind file")
		}
		return nil, fmt.Errorf("invalid mind file: %w", err)
	}
	return &f, nil
}

// LoadMindFile reads and decodes the mind file at path.
func LoadMindFile(path string) (*MindFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mind file: %w", err)
	}
	defer file.Close()

	f, err := ParseMindFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Build creates the agent and a mind holding the file's goals, in order.
func (f *MindFile) Build(r *goal.Registry, opts ...mind.Option) (*mind.Mind, *mind.Agent, error) {
	goals, err := r.CreateAll(f.Goals)
	if err != nil {
		return nil, nil, err
	}

	name := f.Agent.Name
	if name == "" {
		name = "agent"
	}
	agent := mind.NewAgent(name, f.Agent.Memory)

	m := mind.New(agent, opts...)
	for _, g := range goals {
		m.AddGoal(g)
	}
	return m, agent, nil
}
