package main

import (
	"os"

	"github.com/afjltd/quotedesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
