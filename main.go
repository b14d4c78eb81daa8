package main

import (
	"os"

	"github.com/spigell/interview-automator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
