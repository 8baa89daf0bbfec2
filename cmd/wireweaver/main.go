package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
