// README: Technician availability, location, and device registration.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixnow/internal/modules/notify"
	"fixnow/internal/modules/technician"
	"fixnow/internal/types"
)

type TechnicianHandler struct {
	techs  *technician.Service
	tokens notify.TokenStore
}

func NewTechnicianHandler(svc *technician.Service, tokens notify.TokenStore) *TechnicianHandler {
	return &TechnicianHandler{techs: svc, tokens: tokens}
}

type availabilityReq struct {
	Available bool `json:"available"`
}

func (h *TechnicianHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.techs.SetAvailability(c.Request.Context(), callerID(c), req.Available); err != nil {
		writeTechnicianError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": req.Available})
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *TechnicianHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p := types.Point{Lat: req.Lat, Lng: req.Lng}
	if p.IsZero() {
		writeError(c, http.StatusBadRequest, "lat and lng required")
		return
	}
	if err := h.techs.UpdateLocation(c.Request.Context(), callerID(c), p); err != nil {
		writeTechnicianError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type deviceTokenReq struct {
	Token string `json:"token"`
}

func (h *TechnicianHandler) RegisterDevice(c *gin.Context) {
	var req deviceTokenReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		writeError(c, http.StatusBadRequest, "token required")
		return
	}
	if err := h.tokens.SetToken(c.Request.Context(), callerID(c), req.Token); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}
