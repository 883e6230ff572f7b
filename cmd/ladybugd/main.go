package main

import (
	"fmt"
	"os"

	"github.com/ladybug-space/ladybug/cmd/ladybugd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
