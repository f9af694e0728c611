package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Voltair-Energy/voltair/internal/cache"
	"github.com/Voltair-Energy/voltair/internal/config"
	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/mqttpub"
	"github.com/Voltair-Energy/voltair/internal/rules"
	"github.com/Voltair-Energy/voltair/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	store := db.NewStore()

	// nil interface fields mean the service skips those side channels,
	// so only assign them when actually configured
	var stateCache scheduler.StateCache
	if cfg.RedisAddress != "" {
		stateCache = cache.New(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		log.Info().Str("address", cfg.RedisAddress).Msg("site state cache enabled")
	}

	var publisher *mqttpub.Publisher
	var statePublisher scheduler.StatePublisher
	if cfg.MQTTBrokerURL != "" {
		publisher, err = mqttpub.Connect(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect")
		}
		defer publisher.Close()
		statePublisher = publisher
		log.Info().Str("broker", cfg.MQTTBrokerURL).Msg("mqtt publisher enabled")
	}

	service := scheduler.NewService(store, stateCache, statePublisher)
	engine := rules.NewEngine(store)

	r := gin.Default()
	RegisterRoutes(r, cfg, store, service, engine, publisher)

	log.Info().Str("address", cfg.ServerAddress).Msg("listening")
	if err := r.Run(cfg.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
