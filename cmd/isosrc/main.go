package main

import (
	"fmt"
	"os"

	"github.com/seqwell/isosrc/internal/cli"
	"github.com/seqwell/isosrc/internal/pipeline"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(pipeline.ExitCode(err))
	}
}
