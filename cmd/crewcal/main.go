package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bentwick/crewcal/internal/backup"
	"github.com/bentwick/crewcal/internal/database"
	"github.com/bentwick/crewcal/internal/logging"
	"github.com/bentwick/crewcal/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("CREWCAL_LOG_LEVEL"), os.Getenv("CREWCAL_LOG_FORMAT"))

	port := os.Getenv("CREWCAL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CREWCAL_DB_PATH")
	if dbPath == "" {
		dbPath = "crewcal.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CREWCAL_S3_ENDPOINT"),
			Bucket:    os.Getenv("CREWCAL_S3_BUCKET"),
			Region:    os.Getenv("CREWCAL_S3_REGION"),
			AccessKey: os.Getenv("CREWCAL_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CREWCAL_S3_SECRET_KEY"),
		},
		DBPath: dbPath,
	}

	srv := server.New(db,
		backupCfg,
		os.Getenv("CREWCAL_VAPID_PUBLIC_KEY"),
		os.Getenv("CREWCAL_VAPID_PRIVATE_KEY"),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Expired rate-limit entries pile up without an occasional sweep
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
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
		fmt.Printf("CrewCal running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
