package main

import (
	"fmt"
	"os"

	"github.com/bancalia/finconsole/packages/product_console/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
