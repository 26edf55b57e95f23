package main

import (
	"os"

	"w3session/cmd/w3session/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
