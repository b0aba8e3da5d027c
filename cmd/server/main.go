package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/pokebinder/backend/internal/api"
	"github.com/codyseavey/pokebinder/backend/internal/catalog"
	"github.com/codyseavey/pokebinder/backend/internal/config"
	"github.com/codyseavey/pokebinder/backend/internal/database"
	"github.com/codyseavey/pokebinder/backend/internal/history"
	"github.com/codyseavey/pokebinder/backend/internal/images"
	"github.com/codyseavey/pokebinder/backend/internal/pricing"
	"github.com/codyseavey/pokebinder/backend/internal/store"
	"github.com/codyseavey/pokebinder/backend/internal/valuation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	historyStore, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		log.Fatalf("Failed to initialize history store: %v", err)
	}

	imageStorage, err := images.NewStorage(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	collectionStore := store.New(db)
	priceCache := pricing.NewCache(db)
	catalogClient := catalog.NewHTTPClient(cfg.CatalogAPIKey)
	engine := valuation.NewEngine(collectionStore, priceCache, catalogClient, imageStorage, historyStore)
	recorder := history.NewRecorder(historyStore, collectionStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.HistoryEnabled {
		go recorder.Start(ctx)
	}
	if cfg.PriceSweep {
		go engine.StartPriceSweep(ctx)
	}

	router := api.SetupRouter(collectionStore, engine, catalogClient, historyStore, recorder, imageStorage, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
