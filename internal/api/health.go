// Package api serves the indexer's operational endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Head reports the chain head.
type Head interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Cursor reports the last indexed block.
type Cursor interface {
	LastBlock(ctx context.Context) (uint64, bool, error)
}

// Pinger checks storage connectivity. Nil for the in-memory backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	head      Head
	cursor    Cursor
	storage   Pinger
	maxBehind uint64
	logger    zerolog.Logger
}

type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Storage   ServiceStatus `json:"storage"`
	Chain     ChainStatus   `json:"chain"`
}

type ServiceStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

type ChainStatus struct {
	Connected   bool   `json:"connected"`
	LatestBlock uint64 `json:"latest_block"`
	LastIndexed uint64 `json:"last_indexed"`
	BehindBy    uint64 `json:"behind_by"`
	Error       string `json:"error,omitempty"`
}

// NewHealth reports "degraded" once the cursor trails the head by more than
// maxBehind blocks.
func NewHealth(head Head, cursor Cursor, storage Pinger, maxBehind uint64, logger zerolog.Logger) *Health {
	return &Health{
		head:      head,
		cursor:    cursor,
		storage:   storage,
		maxBehind: maxBehind,
		logger:    logger.With().Str("component", "health").Logger(),
	}
}

// Register mounts /health, /ready and /live.
func (h *Health) Register(mux interface {
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
}) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/ready", h.handleReady)
	mux.HandleFunc("/live", func(w http.ResponseWriter, _ *http.Request) {
		Text(w, http.StatusOK, "alive")
	})
}

func (h *Health) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Status(ctx)
	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, status)
}

func (h *Health) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Status(ctx)
	if status.Storage.Connected && status.Chain.Connected {
		Text(w, http.StatusOK, "ready")
		return
	}
	Text(w, http.StatusServiceUnavailable, "not ready")
}

// Status checks storage and the chain, and compares the cursor to the head.
func (h *Health) Status(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Storage:   ServiceStatus{Connected: true},
		Chain:     ChainStatus{Connected: true},
	}

	if h.storage != nil {
		if err := h.storage.Ping(ctx); err != nil {
			status.Storage = ServiceStatus{Error: err.Error()}
			status.Status = "unhealthy"
		}
	}

	latest, err := h.head.BlockNumber(ctx)
	if err != nil {
		status.Chain = ChainStatus{Error: err.Error()}
		status.Status = "unhealthy"
		return status
	}
	status.Chain.LatestBlock = latest

	indexed, ok, err := h.cursor.LastBlock(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read cursor")
	}
	if ok {
		status.Chain.LastIndexed = indexed
		if latest > indexed {
			status.Chain.BehindBy = latest - indexed
		}
	}
	if status.Status == "healthy" && status.Chain.BehindBy > h.maxBehind {
		status.Status = "degraded"
	}
	return status
}
