// Package addresses provides the address import and collection-day lookup module.
package addresses

import (
	"fmt"

	"avfall_backend/internal/addresses/handler"
	"avfall_backend/internal/addresses/mapping"
	"avfall_backend/internal/addresses/service"
	"avfall_backend/internal/events"
	"avfall_backend/internal/fractions"
	apphttp "avfall_backend/internal/http"
	"avfall_backend/platform/config"
	"avfall_backend/platform/logger"
	"avfall_backend/platform/validator"
)

// Config is the configuration the module reads.
type Config interface {
	config.ImportConfig
	config.LookupConfig
	Presence() map[string]bool
}

// Module represents the addresses domain module
type Module struct {
	handler  *handler.Handler
	importer *service.Importer
	lookup   *service.Lookup
}

// NewModule creates a new addresses module with all dependencies wired.
// Header aliases and fraction groups are read from the configured files, or
// the built-in defaults when unset.
func NewModule(store service.Store, cfg Config, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	aliases, err := mapping.LoadAliases(cfg.GetHeaderAliasesFile())
	if err != nil {
		return nil, fmt.Errorf("load header aliases: %w", err)
	}
	catalog, err := fractions.Load(cfg.GetFractionsFile())
	if err != nil {
		return nil, fmt.Errorf("load fraction groups: %w", err)
	}

	upserter := service.NewUpserter(store, cfg.GetImportBatchSize(), log)
	importer := service.NewImporter(mapping.New(aliases), upserter, nil, eventBus, log)
	lookup := service.NewLookup(store, catalog, nil, nil, log)
	h := handler.New(importer, lookup, val, cfg.GetImportMaxUploadBytes(), cfg.Presence)

	return &Module{
		handler:  h,
		importer: importer,
		lookup:   lookup,
	}, nil
}

// Importer exposes the import service to the worker and the CLI.
func (m *Module) Importer() *service.Importer {
	return m.importer
}

// Lookup exposes the lookup service to the CLI.
func (m *Module) Lookup() *service.Lookup {
	return m.lookup
}

// SetGeocoder wires the geocoder used for centre points and markers.
func (m *Module) SetGeocoder(geocoder service.Geocoder) {
	m.lookup.SetGeocoder(geocoder)
}

// SetSearchLogger wires search analytics.
func (m *Module) SetSearchLogger(searchLog service.SearchLogger) {
	m.lookup.SetSearchLogger(searchLog)
}

// SetRunRecorder wires the import audit trail.
func (m *Module) SetRunRecorder(runs service.RunRecorder) {
	m.importer.SetRunRecorder(runs)
}

// SetArchive wires workbook archiving.
func (m *Module) SetArchive(archive service.Archive) {
	m.importer.SetArchive(archive)
}

// SetQueue wires deferred imports.
func (m *Module) SetQueue(queue service.Queue) {
	m.importer.SetQueue(queue)
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "addresses"
}

// RegisterRoutes registers the import routes under /api/v1/admin and the
// lookup routes under /api/v1
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
	m.handler.RegisterLookupRoutes(ctx.Protected)
	m.handler.RegisterPublicRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
