package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obiefule/estateflow/internal/gateway"
	"github.com/obiefule/estateflow/internal/helpers"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/purchase"
)

// ConfirmService settles a purchase for a gateway reference.
type ConfirmService interface {
	Confirm(ctx context.Context, reference string) (*models.Purchase, error)
}

type PaymentHandler struct {
	service       ConfirmService
	webhookSecret string
}

func NewPaymentHandler(service ConfirmService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{service: service, webhookSecret: webhookSecret}
}

// Callback handles the browser redirect the gateway issues after checkout.
func (h *PaymentHandler) Callback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}
	if reference == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing payment reference.")
		return
	}

	h.confirm(c, reference)
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// Webhook handles the server-to-server notification. The signature gate
// keeps forged callbacks out; the verify call inside Confirm remains the
// source of truth for the payment status.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Failed to read request body.")
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	if !gateway.ValidWebhookSignature(h.webhookSecret, body, signature) {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid webhook signature.")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid webhook payload.")
		return
	}
	if event.Data.Reference == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing payment reference.")
		return
	}

	h.confirm(c, event.Data.Reference)
}

func (h *PaymentHandler) confirm(c *gin.Context, reference string) {
	p, err := h.service.Confirm(c.Request.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrPurchaseNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Unknown payment reference.")
		case errors.Is(err, purchase.ErrGateway):
			helpers.RespondWithError(c, http.StatusInternalServerError, "Payment verification failed. Please try again.")
		default:
			log.Printf("payment confirm error [%s]: %v", c.GetString("trace_id"), err)
			helpers.RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": p.PaymentStatus,
		"data": gin.H{
			"reference":          p.Reference,
			"estate_id":          p.EstateID,
			"plots":              p.PlotIDs,
			"total_price":        p.TotalPrice,
			"installment_months": p.InstallmentMonths,
		},
	})
}
