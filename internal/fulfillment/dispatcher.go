package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wolfman30/appointment-scheduler/internal/lex"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

// DefaultIntentName is the Lex intent this hook serves.
const DefaultIntentName = "MakeAppointment"

// ErrUnsupportedIntent is returned for any intent other than the configured one.
var ErrUnsupportedIntent = errors.New("fulfillment: unsupported intent")

// TurnHandler decides the directive for one typed request.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req lex.Request) (lex.Directive, error)
}

// Dispatcher routes raw Lex events to the booking orchestrator.
type Dispatcher struct {
	intentName string
	handler    TurnHandler
	logger     *logging.Logger
}

// NewDispatcher constructs a dispatcher for intentName (DefaultIntentName when empty).
func NewDispatcher(intentName string, handler TurnHandler, logger *logging.Logger) *Dispatcher {
	if handler == nil {
		panic("fulfillment: turn handler required")
	}
	if intentName == "" {
		intentName = DefaultIntentName
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{intentName: intentName, handler: handler, logger: logger}
}

// HandleEvent is the Lambda entry point: Lex event in, Lex response out.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt events.LexEvent) (lex.Response, error) {
	req, err := lex.FromEvent(evt)
	if err != nil {
		d.logger.Error("rejecting lex event", "invocation_source", evt.InvocationSource, "error", err)
		return lex.Response{}, err
	}
	d.logger.Debug("dispatch",
		"user_id", req.UserID,
		"intent_name", req.IntentName,
		"bot_name", req.BotName,
	)
	if req.IntentName != d.intentName {
		return lex.Response{}, fmt.Errorf("%w: %s", ErrUnsupportedIntent, req.IntentName)
	}

	directive, err := d.handler.HandleTurn(ctx, req)
	if err != nil {
		d.logger.Error("dialog turn failed", "intent_name", req.IntentName, "user_id", req.UserID, "error", err)
		return lex.Response{}, err
	}
	return lex.Encode(directive)
}
