package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"StructBreak/internal/di"
	"StructBreak/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "serve", "serve | scan | backtest")
	dryRun := flag.Bool("dry-run", false, "scan without publishing or alerting")
	flag.Parse()

	// .env is optional; secrets usually come from the real environment
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s universe=%d symbols index=%s", cfg.Environment, len(cfg.Scan.Universe), cfg.Scan.IndexSymbol)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	switch *mode {
	case "scan":
		err = app.ScanOnce(context.Background(), *dryRun)
	case "backtest":
		err = app.Backtest(context.Background())
	case "serve":
		err = app.Run()
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
