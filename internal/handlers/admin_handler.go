package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/obiefule/estateflow/internal/helpers"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/purchase"
)

// AllocateService assigns plots to a customer without going through the
// payment gateway.
type AllocateService interface {
	Allocate(ctx context.Context, in purchase.AllocateInput) (*models.CustomerProperty, error)
}

type AdminHandler struct {
	service AllocateService
}

func NewAdminHandler(service AllocateService) *AdminHandler {
	return &AdminHandler{service: service}
}

type AllocateRequest struct {
	UserID            uuid.UUID `json:"user_id" binding:"required"`
	EstateID          uuid.UUID `json:"estate_id" binding:"required"`
	Plots             []int64   `json:"plots" binding:"required,min=1"`
	TotalPrice        *int64    `json:"total_price" binding:"omitempty,min=0"`
	InstallmentMonths int       `json:"installment_months" binding:"omitempty,min=1,max=12"`
	PaymentStatus     string    `json:"payment_status" binding:"required,oneof=outstanding fully_paid"`
	AcquisitionStatus string    `json:"acquisition_status" binding:"omitempty,oneof=held released transferred"`
}

// AllocateProperty records a sale made outside the platform, for example a
// cash or bank-transfer deal closed by an agent.
func (h *AdminHandler) AllocateProperty(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationError(c, err)
		return
	}

	property, err := h.service.Allocate(c.Request.Context(), purchase.AllocateInput{
		UserID:            req.UserID,
		EstateID:          req.EstateID,
		PlotIDs:           req.Plots,
		TotalPrice:        req.TotalPrice,
		InstallmentMonths: req.InstallmentMonths,
		PaymentStatus:     models.PropertyPaymentStatus(req.PaymentStatus),
		AcquisitionStatus: models.AcquisitionStatus(req.AcquisitionStatus),
	})
	if err != nil {
		respondPurchaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Property allocated successfully.",
		"data": gin.H{
			"id":                 property.ID,
			"user_id":            property.UserID,
			"estate_id":          property.EstateID,
			"plots":              property.PlotIDs,
			"total_price":        property.TotalPrice,
			"payment_status":     property.PaymentStatus,
			"acquisition_status": property.AcquisitionStatus,
		},
	})
}
