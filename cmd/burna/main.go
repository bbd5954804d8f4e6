package main

import (
	"fmt"
	"os"

	"burna/cmd/burna/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "burna:", commands.Describe(err))
		os.Exit(1)
	}
}
