package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scanattend/internal/attendance"
	"scanattend/internal/config"
	"scanattend/internal/queue"
	"scanattend/internal/reminder"
	"scanattend/internal/store"
)

// Worker consumes scan events for notification fan-out and runs the
// periodic exit-reminder job. It never writes attendance records.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var redisClient *store.Redis
	if cfg.StorageBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
	}

	var backend attendance.Backend
	switch cfg.StorageBackend {
	case "redis":
		backend = attendance.NewRedisBackend(redisClient.Client, attendance.RecordsKey)
	case "postgres":
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		backend = attendance.NewPostgresBackend(db.Client)
	default:
		backend = attendance.NewFileBackend(cfg.StorageFile)
	}

	recStore := attendance.NewStore(backend)
	if err := recStore.Refresh(ctx); err != nil {
		log.Printf("warning: could not load persisted records: %v", err)
	}

	// The API process owns writes; re-read on an interval so reminders see
	// recent scans.
	go func() {
		ticker := time.NewTicker(cfg.ReminderEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := recStore.Refresh(ctx); err != nil {
					log.Printf("refresh failed: %v", err)
				}
			}
		}
	}()

	go reminder.New(recStore, cfg.ReminderHour, cfg.ReminderEvery).Run(ctx)

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:scans")
	} else {
		q = queue.NewInMemory(64)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for scan events...")
	for msg := range messages {
		if msg.Type != "scan" {
			continue
		}
		// Notification fan-out point. For now the scan is acknowledged in
		// the log; the record itself was already persisted by the API.
		log.Printf("scan recorded: %s", string(msg.Body))
	}

	log.Println("worker stopped")
}
