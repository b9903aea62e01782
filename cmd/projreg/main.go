package main

import (
	"fmt"
	"os"

	"github.com/rpggio/projreg/internal/domain/project"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders err as "error: <KIND>: <reason>" for registry errors
// and "error: <text>" for everything else.
func formatError(err error) string {
	if kind, ok := project.KindOf(err); ok {
		return fmt.Sprintf("error: %s: %s", kind, project.ReasonOf(err))
	}
	return "error: " + err.Error()
}
