package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"staffhub-backend/internal/attendance"
	"staffhub-backend/internal/config"
	"staffhub-backend/internal/db"
	"staffhub-backend/internal/email"
	"staffhub-backend/internal/geocode"
	"staffhub-backend/internal/routes"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "staffhub-backend").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	database, err := db.Open(cfg.DbDsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db error")
	}

	policy := attendance.Policy{
		DefaultRadiusMeters: cfg.DefaultRadiusMeters,
		FlexWindowMinutes:   cfg.FlexWindowMinutes,
		RequireApproval:     cfg.RequireApproval,
	}

	geocoder := geocode.New(cfg.GeocodeBaseURL)

	var mailer attendance.Mailer
	if cfg.SmtpHost != "" {
		mailer = email.NewSender(email.Config{
			Host:     cfg.SmtpHost,
			Port:     cfg.SmtpPort,
			Username: cfg.SmtpUser,
			Password: cfg.SmtpPass,
			From:     cfg.SmtpFrom,
		})
	}

	dispatcher := attendance.NewDispatcher(database, log, mailer, cfg.AdminAlertTo)
	validator := attendance.NewValidator(database, geocoder, policy, log)
	service := attendance.NewService(database, validator, dispatcher, policy, log)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	routes.Register(router, routes.Deps{
		DB:       database,
		Cfg:      cfg,
		Service:  service,
		Geocoder: geocoder,
	})

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
