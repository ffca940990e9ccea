package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fitcal/fitcal/internal/auth"
	"github.com/fitcal/fitcal/internal/config"
	"github.com/fitcal/fitcal/internal/db"
	"github.com/fitcal/fitcal/internal/library"
	"github.com/fitcal/fitcal/internal/middleware"
	"github.com/fitcal/fitcal/internal/programs"
	"github.com/fitcal/fitcal/internal/schedule"
	"github.com/fitcal/fitcal/internal/telemetry/metrics"
	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/internal/workoutlog"
	"github.com/fitcal/fitcal/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient     *redis.Client
	loginChecker    *auth.LoginChecker
	authService     *auth.Service
	sessionNotifier *auth.Notifier
	sessionSubID    int

	libraryService *library.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitcal", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // set to 1 when all is set and running

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	sessionNotifier := auth.NewNotifier()
	authService := auth.NewService(auth.DefaultTTL, rdb, sessionNotifier)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitcal-backend")
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:     rdb,
		authService:     authService,
		sessionNotifier: sessionNotifier,
		loginChecker:    auth.NewLoginChecker(auth.DefaultTTL, rdb),

		libraryService: library.NewService(library.NewRepo(dbPool)),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if params.Config.ExerciseLibraryCsvPath != "" {
		if err := s.importLibraryCsv(ctx, params.Config.ExerciseLibraryCsvPath); err != nil {
			return nil, fmt.Errorf("import exercise library csv: %w", err)
		}
	}

	return s, nil
}

// importLibraryCsv refreshes the exercise catalog from the bundled CSV
// on service start, so new deployments pick catalog changes up without
// a separate import run.
func (s *Server) importLibraryCsv(ctx context.Context, csvPath string) error {
	libraryCsvFile, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open exercise library file: %w", err)
	}
	defer func() {
		if err := libraryCsvFile.Close(); err != nil {
			log.Warnf("close exercise library csv file: %s", err)
		}
	}()

	exercises, err := library.ReadExercisesCSV(csv.NewReader(libraryCsvFile))
	if err != nil {
		return err
	}

	imported, err := s.libraryService.Import(ctx, exercises)
	if err != nil {
		return err
	}
	log.Debugf("exercise library: %d entries imported", imported)

	return nil
}

// watchSessionEvents drains the session event stream: a logout drops
// the user's cached schedule mapping, so the next session starts from a
// freshly generated one. The goroutine exits when the subscription is
// cancelled on shutdown.
func (s *Server) watchSessionEvents(scheduleService *schedule.Service) {
	subID, events := s.sessionNotifier.Subscribe()
	s.sessionSubID = subID

	go func() {
		for event := range events {
			if event.Type != auth.SessionEventLogout {
				continue
			}
			log.Tracef("user %d logged out, dropping cached schedule mapping", event.UserID)
			scheduleService.DropCachedMapping(context.Background(), event.UserID)
		}
	}()
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fitcal-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authHandler := auth.NewHandler(
		auth.NewUsersRepo(s.dbPool),
		s.authService,
		s.metricsManager,
	)
	authHandler.SetupRoutes(r, middleware.RateLimit(
		reqRateLimiter, "auth", s.config.LoginRateLimitAllowedPerMin, s.metricsManager,
	))

	logsRepo := workoutlog.NewRepo(s.dbPool)
	logsHandler := workoutlog.NewHandler(logsRepo, s.metricsManager)
	logsHandler.SetupRoutes(r)

	programsRepo := programs.NewRepo(s.dbPool)
	programsService := programs.NewService(programsRepo, logsRepo)
	programsHandler := programs.NewHandler(programsRepo, programsService)
	programsHandler.SetupRoutes(r)

	libraryHandler := library.NewHandler(s.libraryService)
	libraryHandler.SetupRoutes(r)

	scheduleService := schedule.NewService(
		schedule.NewRepo(s.dbPool),
		programsService,
		s.redisClient,
		s.metricsManager,
	)
	scheduleHandler := schedule.NewHandler(scheduleService, logsRepo)
	scheduleHandler.SetupRoutes(r)

	// program, day and exercise edits invalidate the generated schedule
	programsService.SetMutationHook(scheduleService.DropCachedMapping)
	s.watchSessionEvents(scheduleService)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "fitcal backend")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("fitcal service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	// closes the event channel, the watcher goroutine exits
	s.sessionNotifier.Unsubscribe(s.sessionSubID)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
