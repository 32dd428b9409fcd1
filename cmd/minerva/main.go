package main

import (
	"os"

	"github.com/minerva-ai/minerva/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
