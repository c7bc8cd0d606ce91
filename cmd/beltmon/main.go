// cmd/beltmon/main.go
package main

import (
	"context"
	"flag"
	"log"

	"github.com/flexforge/beltmon/pkg/api"
	"github.com/flexforge/beltmon/pkg/config"
	"github.com/flexforge/beltmon/pkg/lifecycle"
	"github.com/flexforge/beltmon/pkg/monitor"
)

func main() {
	log.Printf("Starting beltmon...")

	configPath := flag.String("config", "/etc/beltmon/beltmon.json", "Path to config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg monitor.Config
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	svc := monitor.NewService(cfg)

	// HTTP API runs beside the gRPC health endpoint.
	apiServer := api.NewServer(svc)

	go func() {
		if err := apiServer.Start(cfg.HTTPAddr); err != nil {
			log.Printf("HTTP server failed: %v", err)
			cancel()
		}
	}()

	defer func() {
		if err := apiServer.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down HTTP server: %v", err)
		}
	}()

	if err := lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ListenAddr:  cfg.ListenAddr,
		ServiceName: "BeltMonitor",
		Service:     svc,
	}); err != nil {
		log.Fatalf("Service failed: %v", err)
	}
}
