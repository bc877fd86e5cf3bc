package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/counter-devnet/pkg/app"
	"github.com/chainsafe/counter-devnet/pkg/app/devnet"
	"github.com/chainsafe/counter-devnet/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults apply when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = devnet.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Devnet stopped with error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
