package maps

import (
	"errors"
	"net/http"
	"strings"

	"avfall_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	msgMissingQuery = "Missing q"
	cacheControl    = "s-maxage=3600, stale-while-revalidate=86400"
)

// Handler exposes the geocode proxy.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Geocode handles GET /api/geocode?q=...
func (h *Handler) Geocode(c *gin.Context) {
	var req GeocodeRequest
	_ = c.ShouldBindQuery(&req)
	query := strings.TrimSpace(req.Query)
	if query == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingQuery, nil)
		return
	}

	place, err := h.svc.Search(c.Request.Context(), query)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			httpkit.JSON(c, http.StatusBadGateway, upstreamErrorResponse{Error: upstream.Error(), Detail: upstream.Detail})
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	c.Header("Cache-Control", cacheControl)
	httpkit.OK(c, GeocodeResponse{Item: place})
}
