// Copyright 2026 The Schemac Authors

// Command schemac compiles schema-language packages: resolving
// dependencies, type-checking declarations, and emitting a declaration
// bundle consumable by downstream code generators.
package main

import (
	"os"

	"schemac/internal/cli"
)

func main() {
	if err := cli.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
