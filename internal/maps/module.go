package maps

import (
	apphttp "avfall_backend/internal/http"
)

// Module wires the geocode proxy route.
type Module struct {
	service *Service
	handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{service: svc, handler: NewHandler(svc)}
}

// Service exposes the geocoder to other modules through adapters.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Public.GET("/geocode", ctx.PublicRateLimit, m.handler.Geocode)
}

var _ apphttp.Module = (*Module)(nil)
