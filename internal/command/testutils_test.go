package command

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

const villagerMind = `agent:
  name: villager
  memory:
    hunger: 2
    tired: true
goals:
  - class: goals.Ensure
    params:
      key: hunger
      value: 0
      op: eat
      args:
        set:
          hunger: 0
  - class: goals.Goal
    params:
      description: rest
      fulfilled: "tired == false"
      time: night
      do:
        - op: sleep
          args:
            set:
              tired: false
`

const debugMind = `agent:
  name: watcher
  memory:
    alert: false
goals:
  - class: goals.Goal
    params:
      description: quiet
      fulfilled: "alert == true"
  - class: goals.Goal
    params:
      description: watch
      fulfilled: "alert == true"
      debug: true
      do:
        - op: look
`

func writeMindFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mind.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write mind file: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
