// Command timeslider drives the temporal-extent slider engine from the shell:
// inspecting steps and tick layouts, simulating drags and playback, and
// managing saved slider states and their exports.
package main

import (
	"os"

	"timeslider/cmd/timeslider/commands"
)

var exitFunc = os.Exit

func main() {
	if err := commands.Execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		exitFunc(1)
		return
	}
	exitFunc(0)
}
