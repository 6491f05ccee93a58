// The main package for the store-crawler executable.
package main

import (
	"github.com/coumap/store-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
