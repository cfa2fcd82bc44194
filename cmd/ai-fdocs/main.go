package main

import (
	"os"

	"github.com/ai-fdocs/cargo-ai-fdocs/cmd/ai-fdocs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
