package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokebinder/backend/internal/catalog"
	"github.com/codyseavey/pokebinder/backend/internal/history"
	"github.com/codyseavey/pokebinder/backend/internal/store"
	"github.com/codyseavey/pokebinder/backend/internal/valuation"
)

type CollectionHandler struct {
	store   *store.Store
	engine  *valuation.Engine
	catalog catalog.Client
	history *history.Store
}

func NewCollectionHandler(st *store.Store, engine *valuation.Engine, cat catalog.Client, hist *history.Store) *CollectionHandler {
	return &CollectionHandler{
		store:   st,
		engine:  engine,
		catalog: cat,
		history: hist,
	}
}

type createCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection, err := h.store.CreateCollection(req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *CollectionHandler) ListCollections(c *gin.Context) {
	if c.Query("previews") == "true" {
		previews, err := h.store.ListCollectionsWithPreview()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, previews)
		return
	}

	summaries, err := h.store.ListCollections()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

type renameCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *CollectionHandler) RenameCollection(c *gin.Context) {
	var req renameCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.RenameCollection(c.Param("id"), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "renamed"})
}

func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	if err := h.engine.DeleteCollection(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *CollectionHandler) GetEntries(c *gin.Context) {
	entries, err := h.store.GetEntries(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *CollectionHandler) GetGroupedEntries(c *gin.Context) {
	grouped, err := h.store.GetGroupedEntries(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grouped)
}

type addCardRequest struct {
	CardID   string `json:"card_id" binding:"required"`
	Language string `json:"language"`
	Edition  string `json:"edition"`
	Notes    string `json:"notes"`
}

// AddCard fetches the card from the catalog and inserts one physical-copy
// row. Adding the same card again creates another row; quantity is row count.
func (h *CollectionHandler) AddCard(c *gin.Context) {
	var req addCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := h.catalog.GetCard(c.Request.Context(), req.CardID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found in catalog"})
		return
	}

	entry, err := h.engine.AddCard(c.Request.Context(), *card, c.Param("id"), req.Language, req.Edition, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RemoveCard removes one copy by default; ?all=true removes every copy.
func (h *CollectionHandler) RemoveCard(c *gin.Context) {
	collectionID := c.Param("id")
	cardID := c.Param("cardId")

	if c.Query("all") == "true" {
		removed, err := h.engine.RemoveAllCopies(cardID, collectionID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
		return
	}

	removed, err := h.engine.RemoveOneCopy(cardID, collectionID)
	if err != nil {
		fail(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{"removed": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": 1})
}

func (h *CollectionHandler) DuplicateCard(c *gin.Context) {
	clone, err := h.engine.DuplicateOneCopy(c.Param("cardId"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, clone)
}

func (h *CollectionHandler) Recompute(c *gin.Context) {
	total, err := h.engine.Recompute(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_value": total})
}

// GetValueHistory returns the collection's daily value points for charting.
func (h *CollectionHandler) GetValueHistory(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		days = parsed
	}

	points, err := h.history.Read(c.Param("id"), days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}
