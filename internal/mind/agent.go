package mind

import (
	"github.com/google/uuid"

	"github.com/joeycumines/goaltree/internal/goal"
)

// Agent is the entity a mind acts for. Predicates and terminals see it
// through its memory.
type Agent struct {
	ID     string
	Name   string
	Memory *Memory
}

var (
	_ goal.VariableSource = (*Agent)(nil)
	_ goal.Snapshotter    = (*Agent)(nil)
)

// NewAgent creates an agent with a fresh ID and a memory holding initial.
func NewAgent(name string, initial map[string]any) *Agent {
	return &Agent{
		ID:     uuid.NewString(),
		Name:   name,
		Memory: NewMemory(initial),
	}
}

// Variable implements goal.VariableSource.
func (a *Agent) Variable(key any) (any, error) {
	return a.memory().Variable(key)
}

// Snapshot implements goal.Snapshotter.
func (a *Agent) Snapshot() map[string]any {
	return a.memory().Snapshot()
}

func (a *Agent) memory() *Memory {
	if a.Memory == nil {
		a.Memory = new(Memory)
	}
	return a.Memory
}
