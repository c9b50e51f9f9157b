// cmd/curved/main.go
package main

import (
	"context"
	"flag"
	"log"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/config"
	"github.com/rovshanmuradov/curve-engine/internal/engine"
	"github.com/rovshanmuradov/curve-engine/internal/httpapi"
	"github.com/rovshanmuradov/curve-engine/internal/metrics"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	runner, err := engine.NewRunner(cfg)
	if err != nil {
		fatal("Failed to initialize engine", err)
	}

	runner.SetServerFactory(func(addr string, svc *engine.Service, m *metrics.Metrics, feeCollector solana.PublicKey) engine.HTTPServer {
		return httpapi.New(addr, svc, m, feeCollector, runner.Logger())
	})

	if err := runner.Run(context.Background()); err != nil {
		runner.Logger().Fatal("Engine execution error", zap.Error(err))
	}
}

// fatal reports a startup failure before the engine's own logger exists.
func fatal(msg string, err error) {
	logger, zerr := zap.NewProduction()
	if zerr != nil {
		log.Fatalf("%s: %v", msg, err)
	}
	logger.Fatal(msg, zap.Error(err))
}
