package main

import (
	"fmt"
	"os"

	"github.com/luocfprime/labtasker/internal/redact"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", redact.Error(err))
		os.Exit(1)
	}
}
