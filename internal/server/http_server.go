package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	echoapi "github.com/walletgate/origo/api/echo"
	"github.com/walletgate/origo/config"
)

// NewHTTPServer assembles the echo instance serving the webhook receiver.
func NewHTTPServer(cfg *config.Config, webhook *echoapi.WebhookAPI) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	webhook.RegisterRoutes(e)

	return &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: e,
		// The platform expects a prompt acknowledgement; keep the write
		// budget tight so slow handlers surface as failed deliveries
		// instead of half-open connections.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			evt := log.Info()
			if err != nil {
				evt = log.Error().Err(err)
			}
			evt.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("http request")
			return err
		}
	}
}
