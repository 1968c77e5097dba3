package main

import (
	"os"

	"github.com/chasseuragace/videsh/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
