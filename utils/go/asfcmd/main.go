// Package asfcmd is a CLI utility that inspects, cuts and edits asf files.
package main

import (
	"asfkit"
	"os"
)

func main() {
	if err := asfkit.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
