// Package main is the single-binary entrypoint for Aerial.
package main

import "github.com/aerialtv/aerial/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
