package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/appointment-scheduler/internal/fulfillment"
	"github.com/wolfman30/appointment-scheduler/internal/lex"
	"github.com/wolfman30/appointment-scheduler/internal/observability/metrics"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

type stubDispatcher struct {
	resp lex.Response
	err  error
	got  events.LexEvent
}

func (s *stubDispatcher) HandleEvent(ctx context.Context, evt events.LexEvent) (lex.Response, error) {
	s.got = evt
	return s.resp, s.err
}

const dialogEvent = `{
	"invocationSource": "DialogCodeHook",
	"userId": "user-1",
	"sessionAttributes": {},
	"bot": {"name": "ScheduleAppointment"},
	"currentIntent": {"name": "MakeAppointment", "slots": {"AppointmentType": "cleaning", "Date": null, "Time": null}}
}`

func postEvent(h *FulfillmentHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/lex/fulfillment", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestFulfillmentHandlerReturnsLexResponse(t *testing.T) {
	stub := &stubDispatcher{resp: lex.Response{
		SessionAttributes: map[string]string{},
		DialogAction:      lex.DialogAction{Type: lex.ActionDelegate},
	}}
	h := NewFulfillmentHandler(stub, logging.New("error"))

	rr := postEvent(h, dialogEvent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Delegate", body["dialogAction"].(map[string]any)["type"])

	assert.Equal(t, "MakeAppointment", stub.got.CurrentIntent.Name)
	require.NotNil(t, stub.got.CurrentIntent.Slots["AppointmentType"])
	assert.Equal(t, "cleaning", *stub.got.CurrentIntent.Slots["AppointmentType"])
}

func TestFulfillmentHandlerErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported intent", fmt.Errorf("%w: OrderFlowers", fulfillment.ErrUnsupportedIntent), http.StatusUnprocessableEntity},
		{"missing intent", lex.ErrMissingIntent, http.StatusBadRequest},
		{"unknown phase", fmt.Errorf("%w: %q", lex.ErrUnknownPhase, "x"), http.StatusBadRequest},
		{"store failure", errors.New("dynamodb unavailable"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFulfillmentHandler(&stubDispatcher{err: tc.err}, logging.New("error"))
			rr := postEvent(h, dialogEvent)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestFulfillmentHandlerRejectsInvalidJSON(t *testing.T) {
	h := NewFulfillmentHandler(&stubDispatcher{}, nil)
	rr := postEvent(h, "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewFulfillmentMetrics(reg)
	m.ObserveBooking("booked")

	rr := httptest.NewRecorder()
	NewStatsHandler(reg).Handle(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var snap metrics.FulfillmentSnapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.Bookings["booked"])
}

func TestHealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
