package main

import (
	"os"

	"pooldex/internal/poolcli"
)

func main() {
	if err := poolcli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
