// Command server runs the club roster HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	attendancehandler "clubroster/internal/attendance/handler"
	attendanceservice "clubroster/internal/attendance/service"
	attendancestore "clubroster/internal/attendance/store"
	"clubroster/internal/audit"
	audithandler "clubroster/internal/audit/handler"
	auditpostgres "clubroster/internal/audit/store/postgres"
	"clubroster/internal/auth"
	authhandler "clubroster/internal/auth/handler"
	"clubroster/internal/credential"
	dueshandler "clubroster/internal/dues/handler"
	duesservice "clubroster/internal/dues/service"
	duesstore "clubroster/internal/dues/store"
	memberhandler "clubroster/internal/member/handler"
	memberservice "clubroster/internal/member/service"
	memberstore "clubroster/internal/member/store"
	"clubroster/internal/platform/config"
	"clubroster/internal/platform/database"
	"clubroster/internal/platform/httpserver"
	"clubroster/internal/platform/logger"
	"clubroster/internal/platform/metrics"
	"clubroster/internal/platform/middleware"
	"clubroster/internal/platform/redisclient"
	roleshandler "clubroster/internal/roles/handler"
	rolesservice "clubroster/internal/roles/service"
	rolesstore "clubroster/internal/roles/store"
	"clubroster/internal/status"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var sessions auth.SessionStore = auth.NewMemorySessionStore()
	redisClient, err := redisclient.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = auth.NewRedisSessionStore(redisClient)
		log.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set, sessions will not survive restarts")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	members := memberstore.NewPostgres(db)
	payments := duesstore.NewPostgres(db)
	attendanceRecords := attendancestore.NewPostgres(db)
	roleHistory := rolesstore.NewPostgres(db)
	auditStore := auditpostgres.New(db)

	txRunner := database.NewTx(db, 10*time.Second)
	recorder := audit.NewRecorder(auditStore)
	hasher := credential.NewBcryptHasher()
	tokens := auth.NewTokenIssuer([]byte(cfg.SessionSecret))

	memberSvc := memberservice.New(members, payments, attendanceRecords, roleHistory, txRunner, recorder, hasher,
		memberservice.WithLogger(log), memberservice.WithMetrics(m))
	duesSvc := duesservice.New(payments, members, txRunner, recorder,
		duesservice.WithLogger(log), duesservice.WithMetrics(m))
	attendanceSvc := attendanceservice.New(attendanceRecords, members, txRunner, recorder,
		attendanceservice.WithLogger(log), attendanceservice.WithMetrics(m))
	rolesSvc := rolesservice.New(roleHistory, members, txRunner, recorder,
		rolesservice.WithLogger(log), rolesservice.WithMetrics(m))
	statusSvc := status.NewService(members, payments, attendanceRecords)
	authSvc := auth.New(members, sessions, txRunner, hasher, tokens,
		auth.WithLogger(log), auth.WithMetrics(m), auth.WithSessionTTL(cfg.SessionTTL))

	authHandler := authhandler.New(authSvc, statusSvc, log)
	memberHandler := memberhandler.New(memberSvc, statusSvc, log)
	duesHandler := dueshandler.New(duesSvc, log)
	attendanceHandler := attendancehandler.New(attendanceSvc, log)
	rolesHandler := roleshandler.New(rolesSvc, log)
	auditHandler := audithandler.New(recorder, statusSvc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	authHandler.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authSvc))
		authHandler.RegisterAuthenticated(r)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			memberHandler.Register(r)
			duesHandler.Register(r)
			attendanceHandler.Register(r)
			rolesHandler.Register(r)
			auditHandler.Register(r)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting clubroster", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
