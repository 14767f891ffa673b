package main

import (
	"fmt"
	"os"
)

// version is set via ldflags during build
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
