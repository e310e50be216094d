package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/graphql-go/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/phonebook/internal/auth"
	"github.com/mmynk/phonebook/internal/config"
	"github.com/mmynk/phonebook/internal/graph"
	"github.com/mmynk/phonebook/internal/middleware"
	"github.com/mmynk/phonebook/internal/pubsub"
	"github.com/mmynk/phonebook/internal/service"
	"github.com/mmynk/phonebook/internal/storage/sqlite"
	"github.com/mmynk/phonebook/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	events := pubsub.NewPersonEvents()
	svc := service.NewPhonebook(store, jwtManager, events, cfg.DefaultUserPassword, slog.Default())

	schema, err := graph.NewSchema(svc, events)
	if err != nil {
		slog.Error("Failed to build schema", "error", err)
		os.Exit(1)
	}

	graphqlHandler := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/graphql", middleware.WithUser(jwtManager, store, slog.Default())(middleware.Metrics(graphqlHandler)))
	mux.Handle("/subscriptions", graph.NewSubscriptionHandler(schema, slog.Default()))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Add logging and CORS middleware
	loggedHandler := middleware.Logging(middleware.CORS(mux))

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("GraphQL server starting",
		"address", addr,
		"url", fmt.Sprintf("http://localhost%s/graphql", addr),
		"subscriptions", fmt.Sprintf("ws://localhost%s/subscriptions", addr),
	)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
