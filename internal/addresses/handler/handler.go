package handler

import (
	"errors"
	"io"
	"net/http"

	"avfall_backend/internal/addresses/service"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/httpkit"
	"avfall_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidJSON        = "Invalid JSON body"
	msgMissingFile        = "Missing file field"
	msgFileTooLarge       = "File too large"
	msgUnsupportedContent = "Unsupported Content-Type (use application/json or multipart/form-data)"
	msgImportUsage        = "POST {rows:[...]} as application/json or a workbook as multipart/form-data field \"file\". dryRun=1 validates without writing; async=1 defers an upload to the worker."

	// multipartOverhead leaves room for boundaries and the small form fields.
	multipartOverhead = 1 << 20
)

// Handler handles HTTP requests for address import and lookup.
type Handler struct {
	importer  *service.Importer
	lookup    *service.Lookup
	val       *validator.Validator
	maxUpload int64
	presence  func() map[string]bool
}

// New creates a new addresses handler.
func New(importer *service.Importer, lookup *service.Lookup, val *validator.Validator, maxUpload int64, presence func() map[string]bool) *Handler {
	return &Handler{
		importer:  importer,
		lookup:    lookup,
		val:       val,
		maxUpload: maxUpload,
		presence:  presence,
	}
}

// RegisterAdminRoutes registers the import routes on an admin-only group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/import", h.ImportUsage)
	rg.POST("/import", h.Import)
}

// RegisterLookupRoutes registers the lookup routes on an authenticated group.
func (h *Handler) RegisterLookupRoutes(rg *gin.RouterGroup) {
	rg.GET("/lookup", h.Lookup)
	rg.GET("/lookup/markers", h.Markers)
}

// RegisterPublicRoutes registers routes that need no login.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/fractions", h.FractionGroups)
}

// ImportUsage handles GET /api/v1/admin/import
func (h *Handler) ImportUsage(c *gin.Context) {
	httpkit.OK(c, transport.ImportUsageResponse{
		OK:      true,
		Message: msgImportUsage,
		Env:     h.presence(),
	})
}

// Import handles POST /api/v1/admin/import
func (h *Handler) Import(c *gin.Context) {
	switch c.ContentType() {
	case gin.MIMEJSON:
		h.importJSON(c)
	case gin.MIMEMultipartPOSTForm:
		h.importUpload(c)
	default:
		httpkit.HandleError(c, apperr.UnsupportedMedia(msgUnsupportedContent))
	}
}

func (h *Handler) importJSON(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var req transport.ImportRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgInvalidJSON, err.Error())
		return
	}

	resp, err := h.importer.Import(c.Request.Context(), service.ImportRequest{
		Rows:        req.Rows,
		DryRun:      bool(req.DryRun),
		Source:      service.SourceJSON,
		RequestedBy: requester(c),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) importUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, err.Error())
		return
	}
	if int64(len(data)) > h.maxUpload {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
		return
	}

	req := service.WorkbookRequest{
		FileName:    header.Filename,
		Data:        data,
		DryRun:      transport.ParseFlag(c.PostForm("dryRun")),
		Source:      service.SourceUpload,
		RequestedBy: requester(c),
	}

	if !req.DryRun && transport.ParseFlag(c.PostForm("async")) {
		queued, err := h.importer.QueueWorkbook(c.Request.Context(), req)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, queued)
		return
	}

	resp, err := h.importer.ImportWorkbook(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// Lookup handles GET /api/v1/lookup
func (h *Handler) Lookup(c *gin.Context) {
	req, ok := h.bindLookup(c)
	if !ok {
		return
	}

	resp, err := h.lookup.Lookup(c.Request.Context(), requester(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// Markers handles GET /api/v1/lookup/markers
func (h *Handler) Markers(c *gin.Context) {
	req, ok := h.bindLookup(c)
	if !ok {
		return
	}

	resp, err := h.lookup.Markers(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// FractionGroups handles GET /api/v1/fractions
func (h *Handler) FractionGroups(c *gin.Context) {
	httpkit.OK(c, h.lookup.FractionGroups())
}

func (h *Handler) bindLookup(c *gin.Context) (transport.LookupRequest, bool) {
	var req transport.LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, validator.FirstMessage(err), nil)
		return req, false
	}
	return req, true
}

func requester(c *gin.Context) *uuid.UUID {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		return nil
	}
	id := identity.UserID()
	return &id
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
