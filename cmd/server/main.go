package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/graindesk/grainbroker/internal/config"
	"github.com/graindesk/grainbroker/internal/db"
	"github.com/graindesk/grainbroker/internal/ingestion"
	"github.com/graindesk/grainbroker/internal/insights"
	"github.com/graindesk/grainbroker/internal/middleware"
	"github.com/graindesk/grainbroker/internal/orders"
	"github.com/graindesk/grainbroker/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := config.NewLogger()

	cfg, err := config.Load(".")
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	var repo repository.OrderRepository
	if os.Getenv("GRAINBROKER_STORAGE") == "memory" {
		log.Warn("running with in-memory storage, orders will not survive a restart")
		repo = repository.NewMemoryOrderRepository()
	} else {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer conn.Close()

		if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}
		repo = repository.NewOrderRepository(conn.Pool)
	}

	importService := ingestion.NewService(repo, log)
	orderService := orders.NewService(repo, log)
	analyzer := insights.NewOpenAIAnalyzer(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	insightService := insights.NewService(repo, analyzerOrNil(analyzer), log)

	mux := http.NewServeMux()
	ingestion.NewHTTPHandler(importService).Register(mux)
	insights.NewHTTPHandler(insightService).Register(mux)
	orders.NewHTTPHandler(orderService).Register(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.Logging(log)(corsHandler.Handler(mux)),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server exited")
}

// analyzerOrNil keeps a nil *OpenAIAnalyzer from becoming a non-nil
// insights.Analyzer interface value.
func analyzerOrNil(analyzer *insights.OpenAIAnalyzer) insights.Analyzer {
	if analyzer == nil {
		return nil
	}
	return analyzer
}
