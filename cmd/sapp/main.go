// Command sapp navigates taint traces stored by a static analysis run.
package main

import (
	"os"

	"github.com/roach88/sapp/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
