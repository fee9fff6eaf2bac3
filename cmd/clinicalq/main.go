// Command clinicalq is the operator console for guided EEG assessment
// sessions: it drives the acquisition engine, shows live telemetry, and
// renders the normalized results.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
