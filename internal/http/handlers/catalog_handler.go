package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixnow/internal/modules/catalog"
)

type CatalogHandler struct {
	catalog catalog.Store
}

func NewCatalogHandler(store catalog.Store) *CatalogHandler {
	return &CatalogHandler{catalog: store}
}

type categoryResp struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Sector    string  `json:"sector"`
	TariffMin float64 `json:"tariff_min"`
	TariffMax float64 `json:"tariff_max"`
}

func (h *CatalogHandler) List(c *gin.Context) {
	categories, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]categoryResp, 0, len(categories))
	for _, cat := range categories {
		out = append(out, categoryResp{
			ID:        string(cat.ID),
			Name:      cat.Name,
			Icon:      cat.Icon,
			Sector:    string(cat.Sector),
			TariffMin: cat.TariffMin.Float64(),
			TariffMax: cat.TariffMax.Float64(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}
