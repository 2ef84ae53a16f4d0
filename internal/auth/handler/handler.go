package handler

import (
	"net/http"
	"strings"

	"avfall_backend/internal/auth/service"
	"avfall_backend/internal/auth/transport"
	"avfall_backend/platform/httpkit"
	"avfall_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidUserID  = "invalid user id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetMe handles GET /api/v1/me
func (h *Handler) GetMe(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	profile, err := h.svc.GetMe(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, meResponse(profile))
}

// SetRole handles PUT /api/v1/admin/users/:id/role
func (h *Handler) SetRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidUserID, nil)
		return
	}

	var req transport.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, validator.FirstMessage(err), nil)
		return
	}

	profile, err := h.svc.SetRole(c.Request.Context(), userID, req.Role)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, meResponse(profile))
}

func meResponse(profile service.Profile) transport.MeResponse {
	return transport.MeResponse{OK: true, UserID: profile.UserID.String(), Role: profile.Role}
}
