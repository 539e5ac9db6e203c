package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossfirth/hearthward/internal/backup"
	"github.com/mossfirth/hearthward/internal/database"
	"github.com/mossfirth/hearthward/internal/logging"
	"github.com/mossfirth/hearthward/internal/server"
)

func main() {
	port := envOr("HEARTHWARD_PORT", "8080")
	dbPath := envOr("HEARTHWARD_DB_PATH", "hearthward.db")

	logger := logging.Setup(os.Getenv("HEARTHWARD_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HEARTHWARD_S3_ENDPOINT"),
			Bucket:    os.Getenv("HEARTHWARD_S3_BUCKET"),
			Region:    envOr("HEARTHWARD_S3_REGION", "auto"),
			AccessKey: os.Getenv("HEARTHWARD_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HEARTHWARD_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("HEARTHWARD_BACKUP_PASSPHRASE"),
	}

	srv := server.New(db, backupCfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if snap := srv.Snapshotter(); snap != nil {
		snap.Start(ctx)
		defer snap.Stop()
	}

	// Expired rate-limit windows accumulate slowly; sweep them hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("hearthward listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
