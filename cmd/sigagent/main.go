package main

import (
	"os"

	"github.com/tradewire/sigagent/cmd/sigagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
