// studiodesk is a command-line client for the studio admin API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rootCmd, state := newRootCmd(os.Stdout, os.Stderr)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		// First signal: stop accepting uploads and let in-flight ones finish.
		go func() {
			<-sigChan
			cancel()
		}()
		state.drain(ctx)
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	state.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
