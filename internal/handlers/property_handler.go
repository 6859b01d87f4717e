package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/obiefule/estateflow/internal/helpers"
	"github.com/obiefule/estateflow/internal/metrics"
	"github.com/obiefule/estateflow/internal/repositories"
)

type PropertyHandler struct {
	reporter   metrics.Reporter
	properties repositories.PropertyRepository
	signer     *helpers.CertificateSigner
}

func NewPropertyHandler(reporter metrics.Reporter, properties repositories.PropertyRepository, signer *helpers.CertificateSigner) *PropertyHandler {
	return &PropertyHandler{reporter: reporter, properties: properties, signer: signer}
}

// CustomerMetrics returns the dashboard counters for the logged-in customer.
func (h *PropertyHandler) CustomerMetrics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	m, err := h.reporter.CustomerMetrics(c.Request.Context(), userID)
	if err != nil {
		log.Printf("customer metrics error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load metrics.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": m})
}

// CustomerProperties returns the customer's properties grouped by payment
// progress.
func (h *PropertyHandler) CustomerProperties(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.reporter.CustomerProperties(c.Request.Context(), userID)
	if err != nil {
		log.Printf("customer properties error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load properties.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": groups})
}

// Certificate renders the ownership certificate for one property as a QR
// PNG. Only the owning customer can fetch it.
func (h *PropertyHandler) Certificate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid property ID.")
		return
	}

	property, err := h.properties.GetByID(c.Request.Context(), propertyID)
	if err != nil {
		log.Printf("certificate lookup error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load property.")
		return
	}
	if property == nil || property.UserID != userID {
		// Hide existence of other customers' properties.
		helpers.RespondWithError(c, http.StatusNotFound, "Property not found.")
		return
	}

	payload := h.signer.Sign(property.ID, property.UserID, property.EstateID, property.PlotIDs)
	body, err := json.Marshal(payload)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to build certificate.")
		return
	}

	png, err := qrcode.Encode(string(body), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate certificate.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID type.")
		return uuid.Nil, false
	}
	return userID, true
}
