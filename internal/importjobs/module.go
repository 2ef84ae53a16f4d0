// Package importjobs keeps the audit trail of address imports.
package importjobs

import (
	apphttp "avfall_backend/internal/http"
	"avfall_backend/internal/importjobs/handler"
	"avfall_backend/internal/importjobs/repository"
	"avfall_backend/internal/importjobs/service"
	"avfall_backend/platform/logger"
	"avfall_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the import run module. downloads may be nil.
func NewModule(db repository.Querier, downloads service.Downloads, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(db), downloads, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Service exposes the run recorder to the importer and the queue adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) Name() string {
	return "importjobs"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/imports"))
}

var _ apphttp.Module = (*Module)(nil)
