package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crosspost/internal/domain/config"
	"crosspost/internal/serve"
)

func main() {
	cfg, err := config.LoadOrDefault("./crosspost.yaml")
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := serve.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "serve init error:", err.Error())
		os.Exit(1)
	}
	defer s.Close()

	if err := s.ListenAndServe(ctx, cfg.Serve.Listen); err != nil {
		fmt.Fprintln(os.Stderr, "serve error:", err.Error())
		os.Exit(1)
	}
}
