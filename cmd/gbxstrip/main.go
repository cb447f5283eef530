package main

import (
	"fmt"
	"os"

	"gbxstrip/internal/pipeline"
)

func main() {
	cmd, state := newRootCommand()
	err := cmd.Execute()
	if state.helpRequested {
		os.Exit(pipeline.ExitUsage)
	}
	if err == nil {
		return
	}

	code := pipeline.ExitCode(err)
	fmt.Fprintln(os.Stderr, err)
	if code == pipeline.ExitUsage {
		fmt.Fprint(os.Stdout, usageText())
	}
	os.Exit(code)
}
