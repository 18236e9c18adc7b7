package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// WaitForShutdown blocks until SIGINT or SIGTERM. Each SIGHUP in between
// calls reload.
func WaitForShutdown(reload func() error) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)
	defer signal.Stop(sc)

	for sig := range sc {
		if sig == syscall.SIGHUP {
			slog.Info("Reload signal received")
			if reload == nil {
				continue
			}
			if err := reload(); err != nil {
				slog.Error("Reload failed, keeping previous settings", "error", err)
			}
			continue
		}
		slog.Info("Shutdown signal received", "signal", sig.String())
		return
	}
}
