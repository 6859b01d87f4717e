package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/obiefule/estateflow/internal/helpers"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/repositories"
)

// AvailabilityCounter reports how many plots an estate still has on offer.
type AvailabilityCounter interface {
	CountAvailable(ctx context.Context, estateID uuid.UUID) (int64, error)
}

type EstateHandler struct {
	estates   repositories.EstateRepository
	inventory AvailabilityCounter
}

func NewEstateHandler(estates repositories.EstateRepository, inventory AvailabilityCounter) *EstateHandler {
	return &EstateHandler{estates: estates, inventory: inventory}
}

type PlotInput struct {
	Number     int    `json:"number" binding:"required,min=1"`
	Coordinate string `json:"coordinate"`
}

type EstateRequest struct {
	Name        string      `json:"name" binding:"required"`
	Location    string      `json:"location" binding:"required"`
	Description string      `json:"description"`
	PlotPrice   int64       `json:"plot_price" binding:"required,min=1"`
	PromoPrice  *int64      `json:"promo_price" binding:"omitempty,min=1"`
	Plots       []PlotInput `json:"plots" binding:"required,min=1,dive"`
}

// CreateEstate registers an estate together with its plot inventory. Plots
// start out available.
func (h *EstateHandler) CreateEstate(c *gin.Context) {
	var req EstateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationError(c, err)
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	plots := make([]models.Plot, 0, len(req.Plots))
	for _, p := range req.Plots {
		plots = append(plots, models.Plot{
			Number:     p.Number,
			Coordinate: p.Coordinate,
			Status:     models.PlotAvailable,
		})
	}

	estate := &models.Estate{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		PlotPrice:   req.PlotPrice,
		PromoPrice:  req.PromoPrice,
		Plots:       plots,
		UserID:      userID,
	}
	if err := h.estates.Create(c.Request.Context(), estate); err != nil {
		log.Printf("create estate error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create estate.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Estate created successfully.",
		"estate_id": estate.ID,
	})
}

// ListEstates returns all estates with their remaining availability.
func (h *EstateHandler) ListEstates(c *gin.Context) {
	estates, err := h.estates.List(c.Request.Context())
	if err != nil {
		log.Printf("list estates error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load estates.")
		return
	}

	out := make([]gin.H, 0, len(estates))
	for i := range estates {
		view, err := h.estateView(c.Request.Context(), &estates[i])
		if err != nil {
			log.Printf("list estates error [%s]: %v", c.GetString("trace_id"), err)
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load estates.")
			return
		}
		out = append(out, view)
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GetEstate returns one estate with its remaining availability.
func (h *EstateHandler) GetEstate(c *gin.Context) {
	estateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid estate ID.")
		return
	}

	estate, err := h.estates.GetByID(c.Request.Context(), estateID)
	if err != nil {
		log.Printf("get estate error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load estate.")
		return
	}
	if estate == nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Estate not found.")
		return
	}

	view, err := h.estateView(c.Request.Context(), estate)
	if err != nil {
		log.Printf("get estate error [%s]: %v", c.GetString("trace_id"), err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load estate.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (h *EstateHandler) estateView(ctx context.Context, estate *models.Estate) (gin.H, error) {
	available, err := h.inventory.CountAvailable(ctx, estate.ID)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"id":              estate.ID,
		"name":            estate.Name,
		"location":        estate.Location,
		"description":     estate.Description,
		"plot_price":      estate.PlotPrice,
		"promo_price":     estate.PromoPrice,
		"effective_price": estate.EffectivePlotPrice(),
		"available_plots": available,
	}, nil
}
