// Package service implements the stream coordinator: it turns one user
// message into a persisted exchange and a protocol event sequence.
package service

import (
	"github.com/altbridge/chatd/internal/config"
	"github.com/altbridge/chatd/internal/hub"
	"github.com/altbridge/chatd/internal/prompt"
	"github.com/altbridge/chatd/internal/provider"
	"github.com/altbridge/chatd/internal/store"
	"github.com/altbridge/chatd/internal/telemetry"
	"github.com/altbridge/chatd/internal/tools"
)

type Service struct {
	store     store.Store
	providers *provider.Registry
	hub       *hub.Hub
	telemetry *telemetry.Logger
	prompts   *prompt.Assembler
	tools     *tools.Registry
	config    *config.Config
}

func New(store store.Store, providers *provider.Registry, h *hub.Hub, tel *telemetry.Logger, prompts *prompt.Assembler, toolReg *tools.Registry, cfg *config.Config) *Service {
	return &Service{
		store:     store,
		providers: providers,
		hub:       h,
		telemetry: tel,
		prompts:   prompts,
		tools:     toolReg,
		config:    cfg,
	}
}

// Hub exposes the broadcast hub for transports.
func (s *Service) Hub() *hub.Hub { return s.hub }
