package main

import (
	"os"

	"github.com/i474232898/spray-advisory/internal/advisor"
	"github.com/i474232898/spray-advisory/internal/app"
	"github.com/i474232898/spray-advisory/internal/cli"
	"github.com/i474232898/spray-advisory/internal/config"
)

func main() {
	root := cli.RootCommand(func() (*advisor.Engine, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		components, err := app.Build(cfg)
		if err != nil {
			return nil, err
		}
		return components.Engine, nil
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
