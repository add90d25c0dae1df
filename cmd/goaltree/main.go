package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/goaltree/internal/command"
	"github.com/joeycumines/goaltree/internal/config"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		configPath = ""
	}

	cfg := config.NewConfig()
	if configPath != "" {
		if loaded, err := config.LoadFromPath(configPath); err == nil {
			cfg = loaded
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	return command.NewDefaultRegistry(cfg, configPath, version).Run(args, os.Stdout, os.Stderr)
}
