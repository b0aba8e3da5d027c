package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/pokebinder/backend/internal/api/handlers"
	"github.com/codyseavey/pokebinder/backend/internal/catalog"
	"github.com/codyseavey/pokebinder/backend/internal/history"
	"github.com/codyseavey/pokebinder/backend/internal/images"
	"github.com/codyseavey/pokebinder/backend/internal/metrics"
	"github.com/codyseavey/pokebinder/backend/internal/store"
	"github.com/codyseavey/pokebinder/backend/internal/valuation"
)

func SetupRouter(st *store.Store, engine *valuation.Engine, cat catalog.Client, hist *history.Store, recorder *history.Recorder, img *images.Storage, corsOrigins string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))
	router.Use(requestMetrics())

	collectionHandler := handlers.NewCollectionHandler(st, engine, cat, hist)
	cardHandler := handlers.NewCardHandler(st, cat)
	priceHandler := handlers.NewPriceHandler(engine, recorder)

	if img != nil {
		router.Static("/images/cards", img.Dir())
	}

	api := router.Group("/api")
	{
		collections := api.Group("/collections")
		{
			collections.GET("", collectionHandler.ListCollections)
			collections.POST("", collectionHandler.CreateCollection)
			collections.PUT("/:id", collectionHandler.RenameCollection)
			collections.DELETE("/:id", collectionHandler.DeleteCollection)
			collections.GET("/:id/entries", collectionHandler.GetEntries)
			collections.GET("/:id/grouped", collectionHandler.GetGroupedEntries)
			collections.POST("/:id/cards", collectionHandler.AddCard)
			collections.DELETE("/:id/cards/:cardId", collectionHandler.RemoveCard)
			collections.POST("/:id/cards/:cardId/duplicate", collectionHandler.DuplicateCard)
			collections.POST("/:id/recompute", collectionHandler.Recompute)
			collections.POST("/:id/propagate-prices", priceHandler.PropagatePrices)
			collections.GET("/:id/history", collectionHandler.GetValueHistory)
		}

		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/:id", cardHandler.GetCard)
			cards.GET("/:id/collections", cardHandler.GetContainingCollections)
		}

		prices := api.Group("/prices")
		{
			prices.POST("/refresh", priceHandler.RefreshPrices)
		}

		api.POST("/history/record", priceHandler.RecordSnapshot)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
