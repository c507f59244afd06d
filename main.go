package main

import (
	"os"

	"github.com/jsuresh/ttracker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
