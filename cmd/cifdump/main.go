package main

import (
	"os"

	"github.com/cif-lang/go-cif/cmd/cifdump/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
