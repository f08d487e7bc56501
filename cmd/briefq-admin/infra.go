package main

import (
	"log/slog"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/bootstrap"
)

// adminInfraRequest connects Postgres only. No admin command reads the news
// cache, so an unreachable Redis must not block migrate or retry.
func adminInfraRequest(logger *slog.Logger, cfg *config.AppConfig) bootstrap.InfraRequest {
	return bootstrap.InfraRequest{Config: cfg, Logger: logger}
}

func connectInfra(logger *slog.Logger, cfg *config.AppConfig) (*bootstrap.Infra, error) {
	return bootstrap.ConnectInfra(adminInfraRequest(logger, cfg))
}
