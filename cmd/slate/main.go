// Command slate splits screenplays into scenes and runs the production
// board from the terminal or over HTTP.
package main

import (
	"os"

	"github.com/mesh-intelligence/slate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
