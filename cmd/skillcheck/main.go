// Package main provides the entry point for the skillcheck CLI.
package main

import (
	"os"

	"github.com/randalmurphal/skillcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
