// Package http provides the HTTP server for the chat backend.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/altbridge/chatd/internal/config"
	"github.com/altbridge/chatd/internal/service"
	"github.com/altbridge/chatd/internal/transport/http/v1"
	"github.com/altbridge/chatd/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. It carries the REST
// API, the streaming message endpoint and the WebSocket upgrade.
func NewServer(cfg *config.Config, svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	apiHandler := v1.NewHandler(svc)
	wsServer := ws.NewServer(cfg, svc.Hub())

	// Register Routes
	apiHandler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)

	return e
}
