// Lethal Terminal - keyboard front end for the Lethal Company ship terminal.
// Types registered trap codes on a fixed cycle while the operator keeps
// using the terminal.
package main

import (
	"os"
)

var version = "0.3.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
