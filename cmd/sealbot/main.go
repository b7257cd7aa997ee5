// Command sealbot creates Seal allowlist and subscription entries on Sui,
// uploads a blob for each one through a pool of publishers, and publishes the
// resulting blob id back on chain.
//
// Usage examples:
//
//	sealbot run                                  interactive prompts
//	sealbot run --action allowlist --count 3 --yes
//	sealbot run --action subscription --image ./image.jpg --all-wallets --json
//	sealbot publishers                           probe every publisher endpoint
//	sealbot proxies                              list parsed proxies
//	sealbot wallets                              list derived wallet addresses
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	a := newApp(os.Stdin, os.Stdout)
	err := a.rootCmd().ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
