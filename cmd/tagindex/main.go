// Package main provides the entry point for the tagindex CLI.
package main

import (
	"os"

	"github.com/promptloom/tagindex/cmd/tagindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
