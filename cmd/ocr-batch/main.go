package main

import (
	"os"

	"github.com/spherical/ocr-batch/cmd/ocr-batch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
