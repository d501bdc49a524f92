package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		// Interrupted daemons exit quietly; everything else names the tool.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "retake: %v\n", err)
		}
		os.Exit(1)
	}
}
