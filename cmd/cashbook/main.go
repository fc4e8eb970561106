// Command cashbook is an interactive terminal client for the cashbook API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"cashbook/internal/client"
)

func main() {
	apiURL := flag.String("api", envOr("CASHBOOK_API", "http://localhost:5000"), "cashbook API base URL")
	flag.Parse()

	api, err := client.New(*apiURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := client.NewStore(api)
	if err := store.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "restore session:", err)
	}

	sh := newShell(store, bufio.NewReader(os.Stdin), os.Stdout, func() (string, error) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		return string(pw), err
	})
	fmt.Println("cashbook (type 'help' for commands)")
	sh.run(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
