package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/config"
	"github.com/marminbh/location-svc/internal/geo"
	"github.com/marminbh/location-svc/internal/handlers"
	"github.com/marminbh/location-svc/internal/lifecycle"
	"github.com/marminbh/location-svc/internal/location"
	"github.com/marminbh/location-svc/internal/logger"
	"github.com/marminbh/location-svc/internal/presence"
	"github.com/marminbh/location-svc/internal/redisstore"
	"github.com/marminbh/location-svc/internal/relay"
	"github.com/marminbh/location-svc/internal/routes"
	"github.com/marminbh/location-svc/internal/sink"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Logger

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to Redis (presence keys + geo indexes)
	redisClient, err := redisstore.Connect(&cfg.Redis, log)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisstore.Close(redisClient, log); err != nil {
			logger.Error("Error closing Redis", zap.Error(err))
		}
	}()

	// Connect to NATS (event relay)
	relayConn, err := relay.Connect(&cfg.NATS, log)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer relayConn.Close()

	// Connect to PostgreSQL (persistent-record sink)
	db, err := sink.Connect(&cfg.Database, log)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := sink.Close(db, log); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	// Core components
	registry := presence.NewRegistry(redisstore.NewKV(redisClient), cfg.Presence.TTL, cfg.Presence.TouchMinInterval, log)
	geoStore := geo.NewStore(redisstore.NewGeoIndex(redisClient))
	orchestrator := location.NewOrchestrator(geoStore, relayConn, nil, log)
	controller := lifecycle.NewController(registry, handlers.GatewayIdentityProvider{}, log)

	// Durable record sink: a queue-group subscriber, so a scaled fleet
	// persists each event exactly once.
	sinkStore := sink.NewStore(db, log)
	subscriber := sink.NewSubscriber(sinkStore, log)
	if err := subscriber.Register(relayConn, cfg.Sink.QueueGroup); err != nil {
		logger.Fatal("Failed to register sink subscriber", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Location Service",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	healthHandler := handlers.NewHealthHandler(redisClient, relayConn, db)
	searchHandler := handlers.NewSearchHandler(orchestrator)
	routes.SetupRoutes(app, healthHandler, searchHandler)

	// Start HTTP server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Websocket listener on its own port; gorilla needs net/http hijacking,
	// which fiber's fasthttp transport does not expose.
	wsHandler := handlers.NewWSHandler(controller, orchestrator, log)
	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", wsHandler)
	wsServer := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.WSPort,
		Handler:           wsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Websocket server starting", zap.String("address", wsServer.Addr))
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start websocket server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := wsServer.Close(); err != nil {
		logger.Error("Error during websocket server shutdown", zap.Error(err))
	}
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
