package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/obiefule/estateflow/internal/helpers"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/pricing"
	"github.com/obiefule/estateflow/internal/purchase"
)

// PurchaseService is the slice of the orchestrator the HTTP layer needs.
type PurchaseService interface {
	Preview(ctx context.Context, estateID uuid.UUID, plotIDs []int64, months int) (*purchase.PreviewResult, error)
	Finalize(ctx context.Context, userID, estateID uuid.UUID, plotIDs []int64, months int) (*models.Purchase, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}

type PurchaseRequest struct {
	EstateID          uuid.UUID `json:"estate_id" binding:"required"`
	Plots             []int64   `json:"plots" binding:"required,min=1"`
	InstallmentMonths int       `json:"installment_months" binding:"required,min=1,max=12"`
}

type PurchaseHandler struct {
	service PurchaseService
}

func NewPurchaseHandler(service PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

func (h *PurchaseHandler) PreviewPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationError(c, err)
		return
	}

	res, err := h.service.Preview(c.Request.Context(), req.EstateID, req.Plots, req.InstallmentMonths)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"estate": gin.H{
			"id":       res.Estate.ID,
			"name":     res.Estate.Name,
			"location": res.Estate.Location,
		},
		"plots":   plotSummaries(res.Plots),
		"pricing": pricingView(res.Quote),
	})
}

func (h *PurchaseHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationError(c, err)
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID type.")
		return
	}

	p, err := h.service.Finalize(c.Request.Context(), userUUID, req.EstateID, req.Plots, req.InstallmentMonths)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment": gin.H{
			"reference": p.Reference,
			"link":      p.PaymentLink,
			"status":    p.PaymentStatus,
		},
		"pricing": gin.H{
			"total_price":        p.TotalPrice,
			"installment_months": p.InstallmentMonths,
			"monthly_payment":    p.MonthlyPayment,
			"schedule":           p.Schedule,
		},
	})
}

// ListPurchases returns the caller's purchase history, settled and pending.
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	purchases, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}

	out := make([]gin.H, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, gin.H{
			"reference":          p.Reference,
			"estate_id":          p.EstateID,
			"plots":              p.PlotIDs,
			"total_price":        p.TotalPrice,
			"installment_months": p.InstallmentMonths,
			"payment_status":     p.PaymentStatus,
			"created_at":         p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func respondPurchaseError(c *gin.Context, err error) {
	var unavailable *purchase.UnavailablePlotsError
	switch {
	case errors.As(err, &unavailable):
		helpers.RespondWithUnavailablePlots(c, unavailable.PlotIDs)
	case errors.Is(err, purchase.ErrEstateNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Estate not found.")
	case errors.Is(err, purchase.ErrPurchaseNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
	case errors.Is(err, pricing.ErrInvalidInstallments), errors.Is(err, pricing.ErrInvalidPlotCount):
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, purchase.ErrInvalidPaymentStatus):
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid payment status.")
	case errors.Is(err, purchase.ErrGateway):
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway unavailable. Please try again.")
	default:
		log.Printf("purchase error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

func plotSummaries(plots []models.Plot) []gin.H {
	out := make([]gin.H, 0, len(plots))
	for _, p := range plots {
		out = append(out, gin.H{
			"id":         p.ID,
			"number":     p.Number,
			"coordinate": p.Coordinate,
			"status":     p.Status,
		})
	}
	return out
}

func pricingView(q *pricing.Quote) gin.H {
	return gin.H{
		"effective_price":    q.EffectivePrice,
		"total_price":        q.TotalPrice,
		"monthly_payment":    q.MonthlyPayment,
		"installment_months": q.InstallmentMonths,
		"schedule":           q.Schedule,
	}
}
