package handler

import (
	"github.com/kioskgate/internal/config"
	"github.com/kioskgate/internal/service"
	"github.com/kioskgate/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	tokens       *service.TokenService
	metrics      *service.MetricsService
	poster       *service.PosterService
	adminKeyHash []byte
}

// NewAPI constructs a handler set with shared services.
//
// The admin key is hashed once at startup; handlers only ever compare
// against the hash.
func NewAPI(st store.Store, cfg config.AppConfig) (*API, error) {
	metrics, err := service.NewMetricsService(st, cfg.KioskTimezone)
	if err != nil {
		return nil, err
	}

	var keyHash []byte
	if cfg.AdminKey != "" {
		keyHash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminKey), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}

	return &API{
		tokens:       service.NewTokenService(st, cfg.GameURL),
		metrics:      metrics,
		poster:       service.NewPosterService(st, cfg.SiteBaseURL, cfg.PosterNotice),
		adminKeyHash: keyHash,
	}, nil
}

// Metrics exposes the metrics service for wiring and tests.
func (a *API) Metrics() *service.MetricsService {
	return a.metrics
}
