package main

import (
	"fmt"
	"os"

	"github.com/anime-shed/invoice-inspector-go/internal/cli"
	"github.com/anime-shed/invoice-inspector-go/internal/config"
	"github.com/anime-shed/invoice-inspector-go/internal/container"
	"github.com/anime-shed/invoice-inspector-go/internal/logger"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Reports go to stdout; keep logs out of the way
	logger.SetOutput(os.Stderr)
	logger.SetLevel(cfg.LogLevel)

	c, err := container.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize container: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute(c.ScoringService())
	c.Close()
	if err != nil {
		os.Exit(1)
	}
}
