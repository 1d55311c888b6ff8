// Command arbwatcher monitors cross-venue arbitrage spreads and delivers
// Telegram alerts.
package main

import (
	"github.com/joho/godotenv"

	"cex-arb-alerts/internal/cli"
)

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cli.Execute()
}
