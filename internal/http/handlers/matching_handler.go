// README: Candidate listing for a booking.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixnow/internal/modules/booking"
	"fixnow/internal/modules/matching"
	"fixnow/internal/types"
)

type MatchingHandler struct {
	bookings *booking.Service
	matching *matching.Service
}

func NewMatchingHandler(bookings *booking.Service, m *matching.Service) *MatchingHandler {
	return &MatchingHandler{bookings: bookings, matching: m}
}

// Candidates returns the ranked technician list for a pending booking.
func (h *MatchingHandler) Candidates(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if b.Status != booking.StatusPending {
		writeError(c, http.StatusConflict, "booking no longer available")
		return
	}
	ranked, err := h.matching.RankCandidates(c.Request.Context(), booking.MatchRequest(b))
	if err != nil {
		writeMatchingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": ranked})
}
