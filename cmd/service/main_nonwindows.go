//go:build !windows

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runBroker(ctx, resolveConfigPath()); err != nil {
		fmt.Fprintf(os.Stderr, "broker error: %v\n", err)
		os.Exit(1)
	}
}
