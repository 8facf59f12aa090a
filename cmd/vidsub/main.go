package main

import (
	"os"

	"github.com/vidgo/vidsub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
