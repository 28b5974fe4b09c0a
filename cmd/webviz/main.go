// Where: cli/cmd/webviz/main.go
// What: CLI entrypoint.
// Why: Execute webviz commands with the default dependencies.
package main

import (
	"os"

	"github.com/poruru/webviz-stack/internal/command"
)

func main() {
	os.Exit(command.Run(os.Args[1:], command.Dependencies{}))
}
