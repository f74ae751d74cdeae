package config

import (
	"fmt"
	"os"
)

// Exitf reports a fatal startup error on stderr and exits with code 1. CLI
// entry points use it before logging is configured.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
