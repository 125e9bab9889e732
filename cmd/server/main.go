package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"courtsim/cases"
	"courtsim/config"
	"courtsim/controllers"
	"courtsim/db"
	"courtsim/internal/trialevents"
	"courtsim/internal/voice"
	"courtsim/logging"
	"courtsim/middlewares"
	"courtsim/routes"
	"courtsim/services"
	"courtsim/trial"
	"courtsim/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./config/config.prod.yml", "path to the YAML configuration")
	flag.Parse()

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.Must("development").Fatalf("Failed to load config: %v", err)
	}
	log := logging.Must(cfg.Logging.Env)
	defer logging.ReplaceGlobals(log)()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to start", "error", err)
	}
	defer app.close()

	port := strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{Addr: ":" + port, Handler: app.router}
	go func() {
		log.Infow("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "error", err)
	}
}

type app struct {
	router  *gin.Engine
	manager *trial.Manager
	closers []func()
}

func (a *app) close() {
	a.manager.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*app, error) {
	a := &app{}

	catalog := cases.NewJSONStore(cfg.Cases.CatalogPath)
	var (
		base      cases.Store = catalog
		sink      controllers.CaseSink
		snapshots trial.SnapshotStore = trial.NewMemorySnapshotStore()
	)
	if cfg.Database.URI != "" {
		if err := db.ConnectMongoDB(cfg.Database.URI, log); err != nil {
			log.Warnw("MongoDB unavailable, using the bundled catalog and in-memory snapshots", "error", err)
		} else {
			log.Info("Connected to MongoDB")
			a.closers = append(a.closers, func() { db.DisconnectMongoDB(context.Background()) })
			seeded, err := cases.SeedCases(ctx, db.CasesCollection, catalog)
			if err != nil {
				return nil, err
			}
			if seeded > 0 {
				log.Infow("seeded case catalog", "cases", seeded)
			}
			store := cases.NewMongoStore(db.CasesCollection)
			base, sink = store, store
			snapshots = trial.NewMongoSnapshotStore(db.SnapshotsCollection)
		}
	}
	overlay := cases.NewOverlay(base)

	hub := trialevents.NewHub()
	limits := middlewares.RateLimitConfig{MaxRequests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}
	var (
		events   trialevents.Publisher = hub
		consumer *trialevents.StreamConsumer
		limiter  middlewares.Limiter = middlewares.NewMemoryLimiter(limits)
	)
	if cfg.Redis.Addr != "" {
		rdb, err := trialevents.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warnw("Redis unavailable, events stay in-process", "error", err)
		} else {
			events = trialevents.NewRedisPublisher(rdb)
			consumer = trialevents.NewStreamConsumer(rdb, hub, log)
			limiter = middlewares.NewRedisLimiter(rdb, limits)
			a.closers = append(a.closers, func() { rdb.Close() })
		}
	}

	gemini, err := services.NewGeminiGenerator(ctx, cfg.Gemini.ApiKey, cfg.Gemini.Model, cfg.Trial.GenerationTimeout)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { gemini.Close() })

	ordering, err := trial.OrderingByName(cfg.Trial.Ordering)
	if err != nil {
		return nil, err
	}
	policy, err := trial.ParseFailurePolicy(cfg.Trial.FailurePolicy)
	if err != nil {
		return nil, err
	}
	a.manager = trial.NewManager(overlay, gemini, trial.Options{
		Ordering:          ordering,
		Policy:            policy,
		TranscriptWindow:  cfg.Trial.TranscriptWindow,
		GenerationTimeout: cfg.Trial.GenerationTimeout,
		UndoDepth:         cfg.Trial.UndoDepth,
		Events:            events,
		Logger:            log,
	}, cfg.Trial.IdleTTL)
	if err := a.manager.StartSweeper(cfg.Trial.SweepSchedule); err != nil {
		return nil, err
	}

	a.router = setupRouter(cfg, log, middlewares.RateLimit(limiter, log),
		&controllers.CaseController{Cases: overlay, Sink: sink, Log: log},
		&controllers.TrialController{
			Manager:     a.manager,
			Snapshots:   snapshots,
			Transcriber: voice.ModelTranscriber{Model: gemini, Log: log},
			Log:         log,
		},
		&websocket.TrialStream{Manager: a.manager, Hub: hub, Consumer: consumer, Log: log},
	)
	return a, nil
}

func setupRouter(cfg *config.Config, log *zap.SugaredLogger, limit gin.HandlerFunc, cc *controllers.CaseController, tc *controllers.TrialController, ts *websocket.TrialStream) *gin.Engine {
	if cfg.Logging.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(log))

	// Set trusted proxies (adjust as needed)
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(204) })

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": tc.Manager.Len()})
	})

	api := router.Group("/api")
	routes.SetupCaseRoutes(api, cc)
	routes.SetupTrialRoutes(api, tc, limit)
	routes.SetupStreamRoutes(api, ts)

	log.Debugw("routes registered", "count", len(router.Routes()))
	return router
}
