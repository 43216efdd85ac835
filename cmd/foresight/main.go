// Command foresight runs the commercial viability forecast pipeline: a
// Temporal worker hosting the analysis activities, and client commands to
// request and inspect forecasts.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
