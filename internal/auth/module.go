// Package auth provides the profile and role bounded context module.
// This file defines the module that encapsulates auth setup and route registration.
package auth

import (
	"avfall_backend/internal/auth/handler"
	"avfall_backend/internal/auth/repository"
	"avfall_backend/internal/auth/service"
	apphttp "avfall_backend/internal/http"
	"avfall_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(db repository.Querier, val *validator.Validator) *Module {
	svc := service.New(repository.New(db))
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service, which also resolves roles for RequireRole.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/me", m.handler.GetMe)
	ctx.Admin.PUT("/users/:id/role", m.handler.SetRole)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
