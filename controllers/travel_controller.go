package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/middleware"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// TravelController exposes the travel companion board.
type TravelController struct {
	travel *services.TravelService
}

// NewTravelController creates a new TravelController instance.
func NewTravelController(travel *services.TravelService) *TravelController {
	return &TravelController{travel: travel}
}

// ListListings filters listings by departure, destination and status.
func (t *TravelController) ListListings(ctx *gin.Context) {
	q := services.TravelQuery{
		Departure:   strings.TrimSpace(ctx.Query("departure")),
		Destination: strings.TrimSpace(ctx.Query("destination")),
		Status:      strings.TrimSpace(ctx.Query("status")),
	}
	cacheKey := utils.VersionedKey(ctx.Request.Context(), utils.CachePrefixTravel, fmt.Sprintf("list:dep=%s:dst=%s:status=%s",
		strings.ToLower(q.Departure), strings.ToLower(q.Destination), strings.ToLower(q.Status)))
	var cached []models.TravelListing
	if utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &cached) {
		utils.Success(ctx, gin.H{"items": cached, "total": len(cached)})
		return
	}

	items, err := t.travel.List(ctx.Request.Context(), q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if items == nil {
		items = []models.TravelListing{}
	}
	utils.CacheSetJSON(ctx.Request.Context(), cacheKey, items, 0)
	utils.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// GetListing returns one listing.
func (t *TravelController) GetListing(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	l, err := t.travel.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"listing": l})
}

// CreateListing posts a new listing for the caller.
func (t *TravelController) CreateListing(ctx *gin.Context) {
	var req struct {
		Title              string `json:"title" binding:"required"`
		DepartureCity      string `json:"departure_city" binding:"required"`
		DestinationCity    string `json:"destination_city" binding:"required"`
		DateFrom           string `json:"date_from"`
		DateTo             string `json:"date_to"`
		BudgetRange        string `json:"budget_range_krw"`
		PreferredTransport string `json:"preferred_transport"`
		Contact            string `json:"contact"`
		Notes              string `json:"notes"`
		MaxPeople          int    `json:"max_people"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	l, err := t.travel.Create(ctx.Request.Context(), middleware.CurrentSession(ctx), services.ListingInput{
		Title:              req.Title,
		DepartureCity:      req.DepartureCity,
		DestinationCity:    req.DestinationCity,
		DateFrom:           req.DateFrom,
		DateTo:             req.DateTo,
		BudgetRange:        req.BudgetRange,
		PreferredTransport: req.PreferredTransport,
		Contact:            req.Contact,
		Notes:              req.Notes,
		MaxPeople:          req.MaxPeople,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	t.invalidate(ctx)
	utils.Success(ctx, gin.H{"listing": l})
}

// CloseListing closes a listing owned by the caller.
func (t *TravelController) CloseListing(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	l, err := t.travel.Close(ctx.Request.Context(), middleware.CurrentSession(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	t.invalidate(ctx)
	utils.Success(ctx, gin.H{"listing": l})
}

// JoinListing takes a seat on a listing.
func (t *TravelController) JoinListing(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	l, err := t.travel.Join(ctx.Request.Context(), middleware.CurrentSession(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	t.invalidate(ctx)
	utils.Success(ctx, gin.H{"listing": l})
}

// DeleteListing removes a listing owned by the caller.
func (t *TravelController) DeleteListing(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	if err := t.travel.Delete(ctx.Request.Context(), middleware.CurrentSession(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	t.invalidate(ctx)
	utils.Success(ctx, gin.H{"deleted": true})
}

func (t *TravelController) invalidate(ctx *gin.Context) {
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixTravel, utils.CachePrefixStats)
}
