package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"parking-core/config"
	"parking-core/internal/api/routes"
	"parking-core/internal/booking"
	"parking-core/internal/customerstore"
	"parking-core/internal/db"
	"parking-core/internal/identity"
	"parking-core/internal/logging"
	"parking-core/internal/machine"
	"parking-core/internal/media"
	"parking-core/internal/site"
	"parking-core/internal/socket"
)

func main() {
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.File)
	gin.SetMode(cfg.Server.Mode)

	client, database, err := db.Connect(cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Errorf("mongo disconnect: %v", err)
		}
	}()
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	uploader, err := media.NewUploader(context.Background(), cfg.S3)
	if err != nil {
		log.Fatalf("failed to initialize media uploader: %v", err)
	}

	hub := socket.NewHub()

	siteStore := site.NewStore(database)
	sites := site.NewService(siteStore)

	customerStore := customerstore.NewStore(database)
	customers := customerstore.NewService(customerStore, rand.New(rand.NewSource(time.Now().UnixNano())))

	machineStore := machine.NewStore(database)
	machines := machine.NewService(machineStore, logger, hub)

	bookingStore := booking.NewStore(database)
	bookings := booking.NewService(bookingStore, customers, machines, sites, rand.New(rand.NewSource(time.Now().UnixNano())), logger)

	accessTTL, err := time.ParseDuration(cfg.JWT.Expire)
	if err != nil {
		accessTTL = 7 * 24 * time.Hour
	}
	refreshTTL, err := time.ParseDuration(cfg.JWT.RefreshExpire)
	if err != nil {
		refreshTTL = 30 * 24 * time.Hour
	}
	bcryptCost := cfg.JWT.BcryptSaltRounds
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	identitySvc := identity.NewService(siteStore, identity.Config{
		AccessSecret:  []byte(cfg.JWT.Secret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		BcryptCost:    bcryptCost,
	})

	router := routes.SetupRouter(cfg, database, identitySvc, customers, machines, bookings, sites, uploader, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("starting API server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to run server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}
