// Package apihttp provides the risk radar REST endpoints.
package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"risk-radar/internal/calendar"
	engineapp "risk-radar/internal/engine/application"
	"risk-radar/internal/radar/aggregation"
	radar "risk-radar/internal/radar/domain"
	"risk-radar/internal/recommend"
)

// Clock abstracts request time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Handler serves the risk radar API under /api/v1.
type Handler struct {
	aggregator *aggregation.Aggregator
	engine     *engineapp.Engine
	view       *calendar.View
	recommends *recommend.Engine
	clock      Clock
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock overrides the request clock.
func WithClock(clock Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHandler constructs the API handler.
func NewHandler(aggregator *aggregation.Aggregator, engine *engineapp.Engine, view *calendar.View, recommends *recommend.Engine, opts ...Option) (*Handler, error) {
	if aggregator == nil {
		return nil, errors.New("api handler: nil aggregator")
	}
	if view == nil {
		return nil, errors.New("api handler: nil calendar view")
	}
	if recommends == nil {
		return nil, errors.New("api handler: nil recommendation engine")
	}
	h := &Handler{
		aggregator: aggregator,
		engine:     engine,
		view:       view,
		recommends: recommends,
		clock:      systemClock{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP routes /api/v1 requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/risk":
		h.requireGet(w, r, h.handleRisk)
	case strings.HasPrefix(path, "/api/v1/risk/"):
		h.requireGet(w, r, func(w http.ResponseWriter, r *http.Request) {
			h.handleAssetRisk(w, r, strings.TrimPrefix(path, "/api/v1/risk/"))
		})
	case path == "/api/v1/calendar":
		h.requireGet(w, r, h.handleCalendar)
	case path == "/api/v1/recommendations":
		h.requireGet(w, r, h.handleRecommendations)
	case strings.HasPrefix(path, "/api/v1/recommendations/"):
		h.requireGet(w, r, func(w http.ResponseWriter, r *http.Request) {
			h.handleAssetRecommendation(w, r, strings.TrimPrefix(path, "/api/v1/recommendations/"))
		})
	case path == "/api/v1/clusters":
		h.requireGet(w, r, h.handleClusters)
	case path == "/api/v1/dangerzones":
		h.requireGet(w, r, h.handleDangerZones)
	case path == "/api/v1/events":
		h.requireGet(w, r, h.handleEvents)
	case path == "/api/v1/refresh":
		h.handleRefresh(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) requireGet(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next(w, r)
}

func (h *Handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.aggregator.CurrentRisk(h.clock.Now()))
}

func (h *Handler) handleAssetRisk(w http.ResponseWriter, r *http.Request, asset string) {
	risk, err := h.aggregator.AssetRisk(strings.ToUpper(asset), h.clock.Now())
	if err != nil {
		respondAssetError(w, asset, err)
		return
	}
	writeJSON(w, risk)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	view := r.URL.Query().Get("view")
	switch view {
	case "", "today":
		writeJSON(w, map[string]string{
			"view":     "today",
			"date":     now.Format("2006-01-02"),
			"calendar": h.view.Today(now),
		})
	case "week":
		writeJSON(w, map[string]string{
			"view":       "week",
			"start_date": now.Format("2006-01-02"),
			"calendar":   h.view.Week(now),
		})
	default:
		http.Error(w, "view must be today or week", http.StatusBadRequest)
	}
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	risks := h.aggregator.CurrentRisk(h.clock.Now())
	writeJSON(w, h.recommends.ForAll(risks))
}

func (h *Handler) handleAssetRecommendation(w http.ResponseWriter, r *http.Request, asset string) {
	risk, err := h.aggregator.AssetRisk(strings.ToUpper(asset), h.clock.Now())
	if err != nil {
		respondAssetError(w, asset, err)
		return
	}
	writeJSON(w, h.recommends.ForAsset(risk))
}

func (h *Handler) handleClusters(w http.ResponseWriter, r *http.Request) {
	clusters := h.aggregator.DetectClustering(h.clock.Now(),
		aggregation.DefaultLookahead, aggregation.DefaultClusterWindow)
	if clusters == nil {
		clusters = []radar.Cluster{}
	}
	writeJSON(w, clusters)
}

func (h *Handler) handleDangerZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.aggregator.DangerZones(h.clock.Now()))
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := h.aggregator.Events()
	if events == nil {
		events = []radar.Event{}
	}
	writeJSON(w, events)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.engine == nil {
		http.Error(w, "refresh not available", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := h.engine.RefreshAll(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	alerts, err := h.engine.RunChecks(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"events_loaded": len(h.aggregator.Events()),
		"alerts_fired":  len(alerts),
	})
}

func respondAssetError(w http.ResponseWriter, asset string, err error) {
	if errors.Is(err, radar.ErrAssetNotFound) {
		writeJSONStatus(w, http.StatusNotFound, map[string]string{
			"error": "Unknown asset: " + strings.ToUpper(asset),
		})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
