package main

import (
	"os"

	"github.com/hollis/cradle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
