package main

import (
	"os"

	"github.com/przemekoduje/overo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
