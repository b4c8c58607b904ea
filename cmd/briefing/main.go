package main

import (
	"os"

	"github.com/meridian-labs/briefing/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
