package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokebinder/backend/internal/history"
	"github.com/codyseavey/pokebinder/backend/internal/valuation"
)

type PriceHandler struct {
	engine   *valuation.Engine
	recorder *history.Recorder
}

func NewPriceHandler(engine *valuation.Engine, recorder *history.Recorder) *PriceHandler {
	return &PriceHandler{engine: engine, recorder: recorder}
}

type refreshPricesRequest struct {
	CardIDs []string `json:"card_ids" binding:"required"`
}

// RefreshPrices refreshes the vendor payload cache for the given cards.
// Entries still within the 24h TTL are skipped. Stored row snapshots are not
// touched; use the propagate endpoint to push refreshed payloads into rows.
func (h *PriceHandler) RefreshPrices(c *gin.Context) {
	var req refreshPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.engine.RefreshStalePrices(c.Request.Context(), req.CardIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "updated": updated})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// PropagatePrices copies fresh cached payloads into the collection's stored
// row snapshots and recomputes its total value.
func (h *PriceHandler) PropagatePrices(c *gin.Context) {
	applied, err := h.engine.PropagatePrices(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows_updated": applied})
}

// RecordSnapshot forces a history point for today across all collections.
func (h *PriceHandler) RecordSnapshot(c *gin.Context) {
	if err := h.recorder.RecordNow(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recorded"})
}
