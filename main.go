// The main package for the harvester executable.
package main

import (
	"github.com/openlistings/fsbo-harvester/cmd"
)

func main() {
	cmd.Execute()
}
