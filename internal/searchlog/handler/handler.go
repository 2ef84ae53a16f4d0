package handler

import (
	"net/http"

	"avfall_backend/internal/searchlog/service"
	"avfall_backend/internal/searchlog/transport"
	"avfall_backend/platform/httpkit"
	"avfall_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)
}

// Stats handles GET /api/v1/admin/searches/stats
func (h *Handler) Stats(c *gin.Context) {
	var req transport.StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, validator.FirstMessage(err), nil)
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
