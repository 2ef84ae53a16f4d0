// Package searchlog records collection-day lookups and summarizes them for admins.
package searchlog

import (
	apphttp "avfall_backend/internal/http"
	"avfall_backend/internal/searchlog/handler"
	"avfall_backend/internal/searchlog/repository"
	"avfall_backend/internal/searchlog/service"
	"avfall_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(db repository.Querier, val *validator.Validator) *Module {
	svc := service.New(repository.New(db))
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Service exposes the writer to the address lookup through an adapter.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) Name() string {
	return "searchlog"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/searches"))
}

var _ apphttp.Module = (*Module)(nil)
