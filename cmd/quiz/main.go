package main

import (
	"os"

	"github.com/wonny/tradingquiz/cmd/quiz/commands"
)

// main is the entry point for the Trading Quiz CLI
// ⭐ single CLI entry point: go run ./cmd/quiz [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
