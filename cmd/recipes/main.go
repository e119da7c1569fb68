// Command recipes is a terminal client for the recipe catalogue.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
