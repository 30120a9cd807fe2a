package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"grievance/internal/audit"
	"grievance/internal/cache"
	"grievance/internal/citizen"
	complainthandler "grievance/internal/complaint/handler"
	"grievance/internal/complaint/lock"
	complaintmetrics "grievance/internal/complaint/metrics"
	"grievance/internal/complaint/service"
	complaintstore "grievance/internal/complaint/store/complaint"
	historystore "grievance/internal/complaint/store/history"
	httpapi "grievance/internal/http"
	"grievance/internal/jwtactor"
	"grievance/internal/notify"
	"grievance/internal/platform/config"
	"grievance/internal/platform/httpserver"
	"grievance/internal/platform/logger"
	"grievance/internal/platform/postgres"
	redisplatform "grievance/internal/platform/redis"
)

// complaintStore is the union of what the lock manager and the lifecycle
// service need from header storage.
type complaintStore interface {
	lock.HeaderStore
	service.ComplaintStore
}

// historyStore is the union of the ledger views.
type historyStore interface {
	lock.Ledger
	service.HistoryStore
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}

	var (
		complaints complaintStore
		history    historyStore
		citizens   citizen.Store
		storeTx    service.StoreTx
	)
	if db != nil {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		complaints = complaintstore.NewPostgres(db)
		history = historystore.NewPostgres(db)
		citizens = citizen.NewPostgres(db)
		storeTx = service.NewPostgresTx(db)
		defer db.Close()
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory storage")
		complaints = complaintstore.NewInMemory()
		history = historystore.NewInMemory()
		citizens = citizen.NewInMemoryStore()
	}

	var invalidator cache.Invalidator = cache.NoopInvalidator{}
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		invalidator = cache.NewRedisInvalidator(redisClient.Client, log)
		defer redisClient.Close()
	}

	var dispatcher notify.Dispatcher = notify.NewLogDispatcher(log)
	if cfg.PushGateway != "" {
		dispatcher = notify.NewGateway(cfg.PushGateway)
	}

	var sink audit.Sink = audit.NewMemorySink()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to create kafka audit sink", "error", err)
			os.Exit(1)
		}
		sink = kafkaSink
		defer kafkaSink.Close()
	}
	publisher := audit.NewPublisher(log, 256)
	auditWorker := audit.NewWorker(sink, publisher.Inbox(), log)

	m := complaintmetrics.New()
	locks := lock.NewManager(complaints, history)

	newScoped := func(scope service.ActorScope) *service.Service {
		return service.New(scope, complaints, history, locks,
			service.WithLogger(log),
			service.WithMetrics(m),
			service.WithStoreTx(storeTx),
			service.WithCitizens(citizens),
			service.WithNotifier(dispatcher),
			service.WithCache(invalidator),
			service.WithAuditEmitter(publisher),
		)
	}

	validator := jwtactor.NewService(cfg.JWTSigningKey, "grievance")

	healthChecks := map[string]httpapi.HealthCheck{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:       log,
		Validator:    validator,
		Citizen:      complainthandler.New(newScoped(service.CitizenScope()), log),
		Staff:        complainthandler.New(newScoped(service.StaffScope()), log),
		Admin:        complainthandler.New(newScoped(service.AdminScope()), log),
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting grievance server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
