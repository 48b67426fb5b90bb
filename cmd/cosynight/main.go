// Command cosynight controls Beurer CosyNight heated mattress pads from the
// command line.
//
// Usage:
//
//	export COSYNIGHT_USERNAME=you@example.com
//	export COSYNIGHT_PASSWORD=secret
//	cosynight login
//	cosynight devices
//	cosynight status <device-id>
//	cosynight quickstart <device-id> --body 5 --feet 3 --timespan 1h
//	cosynight zone <device-id> feet 7
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	a := newApp()
	if err := a.execute(context.Background(), newRootCmd(a)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
