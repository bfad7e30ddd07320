package main

import (
	"os"

	"github.com/jeffhong58/ai-stock-selector/cmd/selector/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
