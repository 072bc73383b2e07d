package main

import (
	"fmt"
	"os"

	"bucketgate/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bucketgate: %v\n", err)
		os.Exit(1)
	}
}
