package main

import (
	"fmt"
	"os"

	"github.com/retracehq/retrace/internal/builtin"
	"github.com/retracehq/retrace/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(builtin.NewRegistry())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
