package main

import (
	"os"

	"github.com/theapemachine/qsplit/cmd/qsplit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
