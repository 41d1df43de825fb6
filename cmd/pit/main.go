package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/promptpit/pit/internal/cli"
)

func main() {
	// Load .env if it exists so provider API keys can live next to the
	// project instead of the shell profile.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pit: %v\n", err)
		os.Exit(1)
	}
}
