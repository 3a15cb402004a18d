package main

import (
	"fmt"
	"os"

	"github.com/wonny/argos/cmd/argos/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
