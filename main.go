// The main package for the animalimages executable.
package main

import (
	"github.com/JakeFAU/animal-images/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
