package main

import (
	"os"
)

func main() {
	root := NewRootCmd(DefaultDeps())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
