package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jcttech/specstack/internal/infrastructure/cli"
)

func main() {
	os.Exit(run(os.Stderr))
}

func run(stderr *os.File) int {
	if err := cli.Execute(); err != nil {
		var cliErr *cli.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintf(stderr, "Error: %s\n", cliErr.Error())
			if cliErr.Hint != "" {
				fmt.Fprintf(stderr, "Hint: %s\n", cliErr.Hint)
			}
			return cliErr.ExitCode
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
