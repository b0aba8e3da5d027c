package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokebinder/backend/internal/catalog"
	"github.com/codyseavey/pokebinder/backend/internal/store"
)

type CardHandler struct {
	store   *store.Store
	catalog catalog.Client
}

func NewCardHandler(st *store.Store, cat catalog.Client) *CardHandler {
	return &CardHandler{store: st, catalog: cat}
}

func (h *CardHandler) SearchCards(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	cards, err := h.catalog.SearchCards(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *CardHandler) GetCard(c *gin.Context) {
	card, err := h.catalog.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	c.JSON(http.StatusOK, card)
}

// GetContainingCollections reports how many copies of the card each
// collection holds.
func (h *CardHandler) GetContainingCollections(c *gin.Context) {
	counts, err := h.store.CountCollectionsContainingCard(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": counts})
}
