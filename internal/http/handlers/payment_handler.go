// README: Escrow payment handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixnow/internal/modules/payment"
	"fixnow/internal/types"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: svc}
}

type paymentResp struct {
	ID               string  `json:"id"`
	BookingID        string  `json:"booking_id"`
	Status           string  `json:"status"`
	Amount           float64 `json:"amount"`
	Commission       float64 `json:"commission"`
	TechnicianAmount float64 `json:"technician_amount"`
}

func toPaymentResp(p *payment.Payment) paymentResp {
	return paymentResp{
		ID:               string(p.ID),
		BookingID:        string(p.BookingID),
		Status:           string(p.Status),
		Amount:           p.Amount.Float64(),
		Commission:       p.Commission.Float64(),
		TechnicianAmount: p.TechnicianAmount.Float64(),
	}
}

type initPaymentReq struct {
	BookingID string `json:"booking_id"`
}

func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req initPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		writeError(c, http.StatusBadRequest, "booking_id required")
		return
	}
	p, err := h.payments.Initialize(c.Request.Context(), types.ID(req.BookingID))
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResp(p))
}

func (h *PaymentHandler) Authorize(c *gin.Context) {
	p, err := h.payments.Authorize(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResp(p))
}

func (h *PaymentHandler) Release(c *gin.Context) {
	p, err := h.payments.Release(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResp(p))
}

type refundReq struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req refundReq
	_ = c.ShouldBindJSON(&req)
	p, err := h.payments.Refund(c.Request.Context(), types.ID(c.Param("id")), req.Reason)
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResp(p))
}

func (h *PaymentHandler) GetByBooking(c *gin.Context) {
	p, err := h.payments.GetByBooking(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResp(p))
}
