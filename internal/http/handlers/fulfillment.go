package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/appointment-scheduler/internal/fulfillment"
	"github.com/wolfman30/appointment-scheduler/internal/lex"
	"github.com/wolfman30/appointment-scheduler/internal/observability/metrics"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

const maxEventBytes = 1 << 20

// LexDispatcher handles one Lex code hook event.
type LexDispatcher interface {
	HandleEvent(ctx context.Context, evt events.LexEvent) (lex.Response, error)
}

// FulfillmentHandler exposes the Lex code hook over HTTP for local testing.
type FulfillmentHandler struct {
	dispatcher LexDispatcher
	logger     *logging.Logger
}

func NewFulfillmentHandler(dispatcher LexDispatcher, logger *logging.Logger) *FulfillmentHandler {
	if dispatcher == nil {
		panic("handlers: lex dispatcher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FulfillmentHandler{dispatcher: dispatcher, logger: logger}
}

// Handle decodes a Lex event and writes the Lex response.
func (h *FulfillmentHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var evt events.LexEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&evt); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	resp, err := h.dispatcher.HandleEvent(r.Context(), evt)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, fulfillment.ErrUnsupportedIntent):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, lex.ErrMissingIntent), errors.Is(err, lex.ErrUnknownPhase):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("lex fulfillment failed", "error", err)
		http.Error(w, "fulfillment failed", http.StatusBadGateway)
	}
}

// StatsHandler serves a JSON snapshot of the fulfillment metrics.
type StatsHandler struct {
	gatherer prometheus.Gatherer
}

func NewStatsHandler(gatherer prometheus.Gatherer) *StatsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &StatsHandler{gatherer: gatherer}
}

func (h *StatsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Snapshot(h.gatherer))
}

// HealthCheck reports liveness.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
