package main

import (
	"os"

	"github.com/sambhavthakkar/PulseDrive/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
