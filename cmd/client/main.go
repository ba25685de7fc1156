package main

import (
	"fmt"
	"os"

	"go-dfs/internal/clientcli"
)

func main() {
	if err := clientcli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
