package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	alertapp "risk-radar/internal/alerts/application"
	alertmemory "risk-radar/internal/alerts/infrastructure/memory"
	alertpostgres "risk-radar/internal/alerts/infrastructure/postgres"
	alerthttp "risk-radar/internal/alerts/interfaces/http"
	alertnotify "risk-radar/internal/alerts/notify"
	apihttp "risk-radar/internal/api/http"
	"risk-radar/internal/auth"
	"risk-radar/internal/calendar"
	engineapp "risk-radar/internal/engine/application"
	"risk-radar/internal/observability/metrics"
	"risk-radar/internal/radar/aggregation"
	radarconfig "risk-radar/internal/radar/config"
	"risk-radar/internal/radar/scoring"
	"risk-radar/internal/recommend"
	"risk-radar/internal/sources"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadServerConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	radarCfg, err := radarconfig.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if err := radarCfg.Validate(); err != nil {
		logger.Fatalf("config invalid: %v", err)
	}

	metrics.Init()

	scorer := scoring.NewScorer(radarCfg)
	aggregator := aggregation.NewAggregator(radarCfg, scorer)

	var (
		alertLog   alertapp.AlertLog
		stateStore alertapp.StateStore
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		store := alertpostgres.NewStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := store.EnsureSchema(ctx); err != nil {
			cancel()
			logger.Fatalf("db schema error: %v", err)
		}
		cancel()
		alertLog = store
		stateStore = store
	} else {
		store := alertmemory.NewStore(0)
		alertLog = store
		stateStore = store
		logger.Printf("no DATABASE_URL set, alert state is in-memory only")
	}

	broker := alerthttp.NewSSEBroker()
	sinks := []alertnotify.AlertSink{broker}
	if cfg.AlertWebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel("webhook", cfg.AlertWebhookURL)
		if err != nil {
			logger.Fatalf("alert webhook error: %v", err)
		}
		notifier, err := alertnotify.NewNotifier(logger, []alertnotify.Channel{channel},
			alertnotify.WithCooldown(cfg.AlertNotifyCooldown))
		if err != nil {
			logger.Fatalf("alert notifier error: %v", err)
		}
		sinks = append(sinks, notifier)
	} else {
		logChannel, err := alertnotify.NewLogChannel(logger)
		if err != nil {
			logger.Fatalf("alert log channel error: %v", err)
		}
		notifier, err := alertnotify.NewNotifier(logger, []alertnotify.Channel{logChannel},
			alertnotify.WithCooldown(cfg.AlertNotifyCooldown))
		if err != nil {
			logger.Fatalf("alert notifier error: %v", err)
		}
		sinks = append(sinks, notifier)
	}

	manager, err := alertapp.NewManager(aggregator, radarCfg.Thresholds,
		alertapp.WithNotifier(alertnotify.NewMultiNotifier(sinks...)),
		alertapp.WithStateStore(stateStore),
		alertapp.WithAlertLog(alertLog),
	)
	if err != nil {
		logger.Fatalf("alert manager error: %v", err)
	}

	newsOpts := []sources.NewsOption{}
	if cfg.OpenAIKey != "" {
		classifier, err := sources.NewLLMClassifier(cfg.OpenAIKey)
		if err != nil {
			logger.Fatalf("classifier error: %v", err)
		}
		newsOpts = append(newsOpts, sources.WithClassifier(classifier))
	}
	newsMonitor, err := sources.NewNewsMonitor(cfg.NewsAPIKey, logger, newsOpts...)
	if err != nil {
		logger.Fatalf("news monitor error: %v", err)
	}
	feeds := []sources.Source{
		sources.NewEconomicCalendar(nil),
		sources.NewFedCalendar(nil),
		sources.NewEarningsCalendar(nil),
		newsMonitor,
		sources.NewCryptoEvents(nil),
	}

	engine, err := engineapp.NewEngine(feeds, aggregator, manager, logger,
		engineapp.WithNewsSource(newsMonitor))
	if err != nil {
		logger.Fatalf("engine error: %v", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	if err := engine.RefreshAll(startCtx); err != nil {
		cancelStart()
		logger.Fatalf("initial refresh error: %v", err)
	}
	cancelStart()
	logger.Printf("loaded %d events", len(aggregator.Events()))

	scheduler := engineapp.NewScheduler(engine, radarCfg.Schedule, logger)
	scheduler.Start(context.Background())

	view, err := calendar.NewView(aggregator)
	if err != nil {
		logger.Fatalf("calendar view error: %v", err)
	}
	recommends := recommend.NewEngine()

	apiHandler, err := apihttp.NewHandler(aggregator, engine, view, recommends)
	if err != nil {
		logger.Fatalf("api handler error: %v", err)
	}
	exportHandler, err := apihttp.NewExportHandler(aggregator, recommends, nil)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	alertsHandler, err := alerthttp.NewHandler(alertLog)
	if err != nil {
		logger.Fatalf("alerts handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/risk", apiHandler)
	mux.Handle("/api/v1/risk/", apiHandler)
	mux.Handle("/api/v1/calendar", apiHandler)
	mux.Handle("/api/v1/recommendations", apiHandler)
	mux.Handle("/api/v1/recommendations/", apiHandler)
	mux.Handle("/api/v1/clusters", apiHandler)
	mux.Handle("/api/v1/dangerzones", apiHandler)
	mux.Handle("/api/v1/events", apiHandler)
	mux.Handle("/api/v1/refresh", apiHandler)
	mux.Handle("/api/v1/exports/", exportHandler)
	mux.Handle("/api/v1/alerts", alertsHandler)
	mux.Handle("/api/v1/alerts/stream", alerthttp.NewStreamHandler(broker))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type serverConfig struct {
	DatabaseURL         string
	HTTPAddr            string
	JWTSecret           string
	AlertWebhookURL     string
	AlertNotifyCooldown time.Duration
	NewsAPIKey          string
	OpenAIKey           string
}

func loadServerConfig() serverConfig {
	cfg := serverConfig{
		DatabaseURL:         getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		AlertWebhookURL:     getenvDefault("ALERT_WEBHOOK_URL", ""),
		AlertNotifyCooldown: getenvDuration("ALERT_NOTIFY_COOLDOWN", 15*time.Minute),
		NewsAPIKey:          getenvDefault("NEWS_API_KEY", ""),
		OpenAIKey:           getenvDefault("OPENAI_API_KEY", ""),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the SSE stream working through the logging wrapper.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
