package main

import (
	"log"

	"cinelog/internal/config"
	"cinelog/internal/logging"
	"cinelog/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logging.Init(logging.Config{
		Level:       cfg.LogLevel,
		Pretty:      cfg.LogPretty,
		ServiceName: "cinelog",
	})

	if err := http.Run(cfg); err != nil {
		l := logging.L()
		l.Fatal().Err(err).Msg("server failed")
	}
}
