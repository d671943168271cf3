package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsletter-go/pkg/cli"
	"newsletter-go/pkg/cli/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cli.RootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, output.FormatErrorMessage(err))
		stop()
		os.Exit(1)
	}
}
