package main

import (
	"fmt"
	"os"

	"solendir/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(cli.ExitCode(err))
	}
}
