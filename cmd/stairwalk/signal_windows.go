//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals routes interrupt signals to ch so a long simulation can stop
// between walks.
// Windows has no SIGTERM, so only Ctrl+C is routed.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
