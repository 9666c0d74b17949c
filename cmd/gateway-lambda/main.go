package main

import (
	"log"

	"github.com/joho/godotenv"

	"rfpintake/internal/app"
	"rfpintake/internal/config"
	"rfpintake/internal/gateway"
	"rfpintake/internal/logging"
	"rfpintake/internal/metrics"
)

// Тот же шлюз, что POST /api/gateway, но за API Gateway
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, "json")

	recordStore, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Cannot open record store: %v", err)
	}
	defer closeStore()

	gw := gateway.New(recordStore, app.Tables(cfg), metrics.New("rfp"))
	gateway.NewLambdaHandler(gw).Start()
}
