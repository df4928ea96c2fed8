// README: Booking handlers for the client- and technician-facing lifecycle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixnow/internal/modules/booking"
	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	CategoryID  string  `json:"category_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Urgency     string  `json:"urgency"`
	Sector      string  `json:"sector"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address"`
	AccessNotes string  `json:"access_notes"`
}

type bookingResp struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	Status        string   `json:"status"`
	Title         string   `json:"title"`
	Urgency       string   `json:"urgency"`
	QuotedPrice   float64  `json:"quoted_price"`
	BudgetMax     float64  `json:"budget_max"`
	Address       string   `json:"address"`
	TechnicianID  *string  `json:"technician_id,omitempty"`
	ETAMinutes    *int     `json:"eta_minutes,omitempty"`
	FinalCost     *float64 `json:"final_cost,omitempty"`
	CancelReason  *string  `json:"cancel_reason,omitempty"`
	ExpiresAtUnix int64    `json:"expires_at"`
}

func toBookingResp(b *booking.Booking) bookingResp {
	r := bookingResp{
		ID:            string(b.ID),
		Code:          b.Code,
		Status:        string(b.Status),
		Title:         b.Title,
		Urgency:       string(b.Urgency),
		QuotedPrice:   b.QuotedPrice.Float64(),
		BudgetMax:     b.BudgetMax.Float64(),
		Address:       b.Address,
		ETAMinutes:    b.ETAMinutes,
		CancelReason:  b.CancelReason,
		ExpiresAtUnix: b.ExpiresAt.Unix(),
	}
	if b.TechnicianID != nil {
		id := string(*b.TechnicianID)
		r.TechnicianID = &id
	}
	if b.FinalCost != nil {
		v := b.FinalCost.Float64()
		r.FinalCost = &v
	}
	return r
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		ClientID:    callerID(c),
		CategoryID:  types.ID(req.CategoryID),
		Title:       req.Title,
		Description: req.Description,
		Urgency:     pricing.Urgency(req.Urgency),
		Sector:      catalog.Sector(req.Sector),
		Location:    types.Point{Lat: req.Lat, Lng: req.Lng},
		Address:     req.Address,
		AccessNotes: req.AccessNotes,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResp(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResp(b))
}

type acceptReq struct {
	ETAMinutes int `json:"eta_minutes"`
}

func (h *BookingHandler) Accept(c *gin.Context) {
	var req acceptReq
	// Body is optional; an empty body means no ETA.
	_ = c.ShouldBindJSON(&req)
	b, err := h.bookings.Accept(c.Request.Context(), booking.AcceptCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
		ETAMinutes:   req.ETAMinutes,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) Arrive(c *gin.Context) {
	b, err := h.bookings.ConfirmArrival(c.Request.Context(), booking.ArriveCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResp(b))
}

type completeReq struct {
	FinalCost float64 `json:"final_cost"`
}

func (h *BookingHandler) Complete(c *gin.Context) {
	var req completeReq
	_ = c.ShouldBindJSON(&req)
	cmd := booking.CompleteCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
	}
	if req.FinalCost > 0 {
		cmd.FinalCost = types.NewMoney(req.FinalCost, "EUR")
	}
	b, err := h.bookings.Complete(c.Request.Context(), cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResp(b))
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	actor := callerID(c)
	b, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		ActorID:   &actor,
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	status := statusFilter(c)
	list, err := h.bookings.ListByClient(c.Request.Context(), callerID(c), status)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	out := make([]bookingResp, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResp(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h *BookingHandler) ListAssigned(c *gin.Context) {
	status := statusFilter(c)
	list, err := h.bookings.ListByTechnician(c.Request.Context(), callerID(c), status)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	out := make([]bookingResp, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResp(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func statusFilter(c *gin.Context) *booking.Status {
	if v := c.Query("status"); v != "" {
		s := booking.Status(v)
		return &s
	}
	return nil
}
