package handlers

import (
	"net/http"

	"civicform-backend/internal/meta"

	"github.com/gin-gonic/gin"
)

type MetaHandler struct {
	registry *meta.Registry
}

func NewMetaHandler(registry *meta.Registry) *MetaHandler {
	return &MetaHandler{registry: registry}
}

// ListMeta godoc
// @Summary      List live rows of a registered lookup table
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Lookup table name (e.g. wards, booths)"
// @Success      200 {array} map[string]interface{}
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/meta/{table} [get]
func (h *MetaHandler) ListMeta(c *gin.Context) {
	rows, err := h.registry.List(c.Param("table"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// RefreshMeta godoc
// @Summary      Drop the meta label cache
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Router       /api/v1/meta/refresh [post]
func (h *MetaHandler) RefreshMeta(c *gin.Context) {
	h.registry.Refresh()
	c.JSON(http.StatusOK, MessageResponse{Message: "meta cache refreshed"})
}
