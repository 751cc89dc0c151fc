package config

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	config *Config
}

// publicConfig is what administrators can see. Secrets and connection
// strings are left out.
type publicConfig struct {
	Environment         string `json:"environment"`
	Hostname            string `json:"hostname"`
	ReactionCooldown    string `json:"reaction_cooldown"`
	ReadingSessionTTL   string `json:"reading_session_ttl"`
	RedisEnabled        bool   `json:"redis_enabled"`
	SweepInterval       string `json:"sweep_interval"`
	TransactionalWrites bool   `json:"transactional_writes"`
}

func (h *handler) retrieve(c echo.Context) error {
	cfg := h.config
	return errors.WithStack(c.JSON(http.StatusOK, publicConfig{
		Environment:         cfg.Environment,
		Hostname:            cfg.Hostname,
		ReactionCooldown:    cfg.ReactionCooldown.String(),
		ReadingSessionTTL:   cfg.ReadingSessionTTL.String(),
		RedisEnabled:        cfg.RedisURL != "",
		SweepInterval:       cfg.SweepInterval.String(),
		TransactionalWrites: cfg.TransactionalWrites,
	}))
}
