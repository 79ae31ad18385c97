package main

import (
	"os"

	"github.com/zenith-ledger/zenith/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
