package main

import (
	"os"

	"github.com/tradekit/pmbot/cmd/pmbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
