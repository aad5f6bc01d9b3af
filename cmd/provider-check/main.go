package main

import (
	"context"
	"log"
	"time"

	"github.com/vidinfra/billsync/internal/config"
	"github.com/vidinfra/billsync/internal/httpclient"
	"github.com/vidinfra/billsync/internal/logger"
	"github.com/vidinfra/billsync/internal/provider/stripe"
)

// provider-check verifies the configured billing credentials: it pings the
// provider and lists the active tax rates.
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	httpClient := httpclient.NewDefaultClientWithTimeout(cfg.Stripe.DownloadTimeout)
	billing, err := stripe.NewProvider(cfg, httpClient, logger)
	if err != nil {
		logger.Fatalw("Failed to initialize billing provider", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := billing.CheckConnection(ctx); err != nil {
		logger.Fatalw("Billing provider is unreachable", "error", err)
	}
	logger.Infow("Billing provider connection OK")

	rates, err := billing.GetTaxRates(ctx)
	if err != nil {
		logger.Fatalw("Failed to list tax rates", "error", err)
	}

	if len(rates) == 0 {
		logger.Infow("No active tax rates configured")
		return
	}
	for _, rate := range rates {
		logger.Infow("Active tax rate",
			"id", rate.ID,
			"name", rate.Name,
			"percentage", rate.Percentage,
			"inclusive", rate.Inclusive)
	}
}
