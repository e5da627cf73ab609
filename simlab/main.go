// Command simlab runs the queueing and network labs.
package main

import (
	"github.com/sarchlab/simlab/simlab/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
