// Command sitesentry runs the website defacement monitoring engine.
package main

import (
	"fmt"
	"os"

	"github.com/sitesentry/sitesentry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
