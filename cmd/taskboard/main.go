// Command taskboard manages a personal task list from the terminal and
// serves it over HTTP.
package main

import (
	"os"

	"github.com/mesh-intelligence/taskboard/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
