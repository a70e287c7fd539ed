// The main package for the keyword-engine executable.
package main

import (
	"github.com/seoforge/keyword-engine/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
