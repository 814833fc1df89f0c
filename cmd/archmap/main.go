package main

import (
	"os"

	"archmap/cmd/archmap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
