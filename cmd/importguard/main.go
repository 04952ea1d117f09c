package main

import (
	"os"

	"github.com/garagon/importguard/cmd/importguard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(2)
	}
}
