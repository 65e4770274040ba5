package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/app"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/configuration"
)

func main() {
	cfg, err := configuration.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, true)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
