package main

import (
	"fmt"
	"os"

	"spendlog/internal/cli"
)

func main() {
	if err := cli.NewApp().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
