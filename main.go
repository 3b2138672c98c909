package main

import (
	"log"

	"github.com/Bam1010yod/TradingDashboard-sub000/app"
	"github.com/Bam1010yod/TradingDashboard-sub000/config"
)

func main() {
	// Load config from .env file
	cfg := config.LoadFromEnv()

	// Create and start app
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal(err)
	}
}
