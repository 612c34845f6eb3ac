package main

import (
	"os"

	"github.com/stwalsh4118/projectmap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
