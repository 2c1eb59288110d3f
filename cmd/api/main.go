package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scanattend/internal/attendance"
	"scanattend/internal/config"
	"scanattend/internal/credential"
	"scanattend/internal/httpmiddleware"
	"scanattend/internal/identity"
	"scanattend/internal/qrclient"
	"scanattend/internal/queue"
	"scanattend/internal/reminder"
	"scanattend/internal/report"
	"scanattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var redisClient *store.Redis
	if cfg.StorageBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
	}

	backend, db, err := newBackend(cfg, redisClient)
	if err != nil {
		return err
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	recStore := attendance.NewStore(backend)
	if err := recStore.Refresh(context.Background()); err != nil {
		log.Printf("warning: could not load persisted records: %v", err)
	}

	policy := shiftPolicy(cfg)
	log.Printf("active shift %q starts %s, tolerance %d min, weekly cap %d",
		policy.Name, policy.OfficialStart, policy.ToleranceMinutes, cfg.WeeklyTardyCap)

	svc := attendance.NewService(recStore, policy, cfg.WeeklyTardyCap)

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:scans")
	} else {
		q = queue.NewInMemory(64)
	}

	qr := qrclient.New(cfg.QRServiceURL, !cfg.QRRemote)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Exit reminder ticks alongside the API when no worker is deployed.
	go reminder.New(recStore, cfg.ReminderHour, cfg.ReminderEvery).Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		redisHealthy := true
		if redisClient != nil {
			redisHealthy = redisClient.Healthy(c.Request.Context())
		}
		if !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "backend": cfg.StorageBackend})
	})

	v1 := r.Group("/v1")

	v1.POST("/scans", func(c *gin.Context) {
		var req struct {
			Payload string `json:"payload" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		student, err := identity.Parse(req.Payload)
		switch {
		case errors.Is(err, identity.ErrMalformedPayload):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable code, rescan", "kind": "malformed_payload"})
			return
		case errors.Is(err, identity.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "credential is missing id or name, rescan", "kind": "invalid_identity"})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.RecordScan(c.Request.Context(), student, time.Time{})
		var pe *attendance.PersistenceError
		if err != nil && !errors.As(err, &pe) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		attendance.ScansTotal.WithLabelValues(result.Kind).Inc()
		if result.Classification != nil && result.Classification.ExceedsTolerance {
			attendance.TardyScansTotal.Inc()
		}

		if perr := q.Publish(ctx, queue.Message{Type: "scan", Body: []byte(result.Record.RecordID)}); perr != nil {
			log.Printf("queue publish failed: %v", perr)
		}

		resp := gin.H{"result": result}
		if pe != nil {
			attendance.PersistenceFailures.Inc()
			log.Printf("warning: %v", pe)
			resp["warning"] = "record kept in memory but could not be saved, retry or free storage"
		}
		c.JSON(http.StatusOK, resp)
	})

	v1.GET("/records", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			date = attendance.DateOf(time.Now())
		}
		c.JSON(http.StatusOK, gin.H{"date": date, "records": recStore.ForDate(date)})
	})

	v1.GET("/stats", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			date = attendance.DateOf(time.Now())
		}
		c.JSON(http.StatusOK, report.StatsForDay(recStore.All(), date))
	})

	v1.GET("/reports", func(c *gin.Context) {
		if err := recStore.Refresh(c.Request.Context()); err != nil {
			log.Printf("warning: refresh before report failed: %v", err)
		}
		records := recStore.All()
		now := time.Now()

		switch {
		case c.Query("date") != "":
			records = report.FilterDate(records, c.Query("date"))
		case c.Query("from") != "" && c.Query("to") != "":
			records = report.FilterRange(records, c.Query("from"), c.Query("to"))
		case c.Query("range") == "week":
			records = report.FilterWeek(records, now)
		default:
			records = report.FilterToday(records, now)
		}

		c.JSON(http.StatusOK, gin.H{
			"summary":  report.Summarize(records),
			"students": report.GroupByStudent(records),
		})
	})

	v1.GET("/export.csv", func(c *gin.Context) {
		if err := recStore.Refresh(c.Request.Context()); err != nil {
			log.Printf("warning: refresh before export failed: %v", err)
		}
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="asistencia_`+attendance.DateOf(time.Now())+`.csv"`)
		if err := attendance.WriteCSV(c.Writer, recStore.All(), &policy); err != nil {
			log.Printf("csv export failed: %v", err)
		}
	})

	v1.POST("/credentials", func(c *gin.Context) {
		var student identity.Student
		if err := c.ShouldBindJSON(&student); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payload, err := credential.Payload(student)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "matricula and nombre required"})
			return
		}
		png, err := qr.FetchPNG(c.Request.Context(), payload, 256)
		if err != nil {
			log.Printf("qr render failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "qr render failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	v1.POST("/credentials/import", func(c *gin.Context) {
		var req struct {
			CSV string `json:"csv" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		students, importErrs := credential.ImportRoster(req.CSV)

		type entry struct {
			Student identity.Student `json:"student"`
			Payload string           `json:"payload"`
		}
		out := make([]entry, 0, len(students))
		for _, s := range students {
			payload, perr := credential.Payload(s)
			if perr != nil {
				continue
			}
			out = append(out, entry{Student: s, Payload: payload})
		}
		c.JSON(http.StatusOK, gin.H{"credentials": out, "errors": importErrs})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// newBackend selects the record backend from config.
func newBackend(cfg config.App, redisClient *store.Redis) (attendance.Backend, *store.DB, error) {
	switch cfg.StorageBackend {
	case "redis":
		return attendance.NewRedisBackend(redisClient.Client, attendance.RecordsKey), nil, nil
	case "postgres":
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		backend := attendance.NewPostgresBackend(db.Client)
		if err := backend.EnsureSchema(context.Background()); err != nil {
			return nil, db, err
		}
		return backend, db, nil
	default:
		return attendance.NewFileBackend(cfg.StorageFile), nil, nil
	}
}

// shiftPolicy builds the active shift from config. Values were validated
// at load time, so parsing cannot fail here.
func shiftPolicy(cfg config.App) attendance.ShiftPolicy {
	start := cfg.MorningStart
	name := "morning"
	if cfg.Shift == "evening" {
		start = cfg.EveningStart
		name = "evening"
	}
	return attendance.ShiftPolicy{
		Name:             name,
		OfficialStart:    attendance.MustTimeOfDay(start),
		ToleranceMinutes: cfg.ToleranceMin,
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
