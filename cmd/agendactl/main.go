package main

import (
	"fmt"
	"os"

	"agendacal/internal/clock"
)

var Version = "dev"

func main() {
	if err := newRootCmd(clock.Real()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
