// Package fulfillment decides the next dialog step for the appointment
// booking intent and books the appointment once the dialog completes.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/appointment-scheduler/internal/appointments"
	"github.com/wolfman30/appointment-scheduler/internal/lex"
	"github.com/wolfman30/appointment-scheduler/internal/observability/metrics"
	"github.com/wolfman30/appointment-scheduler/internal/schedule"
	"github.com/wolfman30/appointment-scheduler/internal/validation"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

var fulfillmentTracer = otel.Tracer("scheduler.internal.fulfillment")

const (
	msgWhichType      = "What type of appointment would you like to schedule?"
	msgWhichDay       = "What day works best for you?"
	msgWhichTime      = "What time works best for you?"
	msgNoAvailability = "We do not have any availability on that date, is there another day which works for you?"
	msgUnavailable    = "The time you requested is not available. "
	msgJustBooked     = "That time was just booked. "
)

const (
	lookupSession = "session"
	lookupStore   = "store"

	bookingBooked   = "booked"
	bookingConflict = "conflict"
	bookingError    = "error"
)

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher announces successful bookings. Publish failures are logged only.
func WithPublisher(publisher appointments.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

// WithMetrics records turn, validation and booking counters.
func WithMetrics(m *metrics.FulfillmentMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides the clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator runs one dialog turn at a time. It holds no per-conversation
// state; everything it remembers travels in the session attributes.
type Orchestrator struct {
	store     appointments.Store
	publisher appointments.EventPublisher
	metrics   *metrics.FulfillmentMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewOrchestrator constructs an orchestrator over the persistence adapter.
func NewOrchestrator(store appointments.Store, logger *logging.Logger, opts ...Option) *Orchestrator {
	if store == nil {
		panic("fulfillment: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	o := &Orchestrator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// turn is the working state of one request.
type turn struct {
	req      lex.Request
	slots    lex.Slots
	catalog  appointments.Catalog
	bookings BookingMap
	dirty    bool
	today    time.Time
}

// HandleTurn returns the directive for one Lex code hook invocation.
func (o *Orchestrator) HandleTurn(ctx context.Context, req lex.Request) (lex.Directive, error) {
	started := time.Now()
	ctx, span := fulfillmentTracer.Start(ctx, "fulfillment.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.invocation_source", string(req.Phase)),
		attribute.String("scheduler.intent_name", req.IntentName),
	)

	t, err := o.startTurn(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load turn state")
		return nil, err
	}

	var directive lex.Directive
	switch req.Phase {
	case lex.PhaseDialog:
		directive, err = o.converse(ctx, t)
	case lex.PhaseFulfillment:
		directive, err = o.fulfill(ctx, t)
	default:
		err = fmt.Errorf("%w: %q", lex.ErrUnknownPhase, req.Phase)
	}
	if err == nil {
		directive, err = t.attachSession(directive)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("scheduler.directive", string(directive.Action())))
	o.metrics.ObserveTurn(string(req.Phase), string(directive.Action()), time.Since(started).Seconds())
	o.logger.Debug("dialog turn handled",
		"invocation_source", req.Phase,
		"intent_name", req.IntentName,
		"user_id", req.UserID,
		"directive", directive.Action(),
	)
	return directive, nil
}

func (o *Orchestrator) startTurn(ctx context.Context, req lex.Request) (*turn, error) {
	types, err := o.store.ListAppointmentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: load appointment types: %w", err)
	}
	bookings, err := DecodeBookingMap(req.SessionAttributes[SessionKeyBookingMap])
	if err != nil {
		o.logger.Warn("discarding unreadable booking map", "user_id", req.UserID, "error", err)
	}
	dropped := bookings.Prune()
	if len(dropped) > 0 {
		o.logger.Warn("discarding malformed cached availability", "user_id", req.UserID, "dates", dropped)
	}
	session := make(map[string]string, len(req.SessionAttributes)+1)
	for k, v := range req.SessionAttributes {
		session[k] = v
	}
	req.SessionAttributes = session
	return &turn{
		req:      req,
		slots:    req.Slots,
		catalog:  appointments.Catalog(types),
		bookings: bookings,
		dirty:    err != nil || len(dropped) > 0,
		today:    schedule.DateOf(o.now()),
	}, nil
}

// converse drives slot collection during the dialog phase.
func (o *Orchestrator) converse(ctx context.Context, t *turn) (lex.Directive, error) {
	typeName, ok := t.slots.Get(lex.SlotAppointmentType)
	if !ok {
		return t.elicit(lex.SlotAppointmentType, msgWhichType,
			lex.NewResponseCard("Specify Appointment Type", msgWhichType, typeOptions(t.catalog))), nil
	}

	date, _ := t.slots.Get(lex.SlotDate)
	clock, _ := t.slots.Get(lex.SlotTime)
	if result := validation.Validate(t.catalog, typeName, date, clock, t.today); !result.Valid {
		o.metrics.ObserveValidationFailure(string(result.ViolatedSlot))
		o.logger.Debug("slot rejected", "slot", result.ViolatedSlot, "user_id", t.req.UserID)
		t.slots.Clear(result.ViolatedSlot)
		return t.elicit(result.ViolatedSlot, result.Message,
			lex.NewResponseCard("Specify "+string(result.ViolatedSlot), result.Message, t.optionsFor(result.ViolatedSlot))), nil
	}

	if date == "" {
		prompt := fmt.Sprintf("When would you like to schedule your %s?", typeName)
		return t.elicit(lex.SlotDate, prompt,
			lex.NewResponseCard("Specify Date", prompt, dateOptions(t.today))), nil
	}

	apptType, _ := t.catalog.Lookup(typeName)
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	free, err := o.freeSlots(ctx, t, day, false)
	if err != nil {
		return nil, err
	}
	return o.offerTimes(t, apptType, day, free, clock, ""), nil
}

// offerTimes picks the directive once type and date are known. notice is
// prepended to any prompt.
func (o *Orchestrator) offerTimes(t *turn, apptType appointments.AppointmentType, day time.Time, free []schedule.TimeOfDay, clock, notice string) lex.Directive {
	date := day.Format(schedule.DateLayout)
	options := schedule.FilterByDuration(free, apptType.DurationMinutes)
	if len(options) == 0 {
		t.slots.Clear(lex.SlotDate)
		t.slots.Clear(lex.SlotTime)
		return t.elicit(lex.SlotDate, notice+msgNoAvailability,
			lex.NewResponseCard("Specify Date", msgWhichDay, dateOptions(t.today)))
	}

	message := notice + fmt.Sprintf("What time on %s works for you? ", date)
	if clock != "" {
		if requested, err := schedule.ParseTimeOfDay(clock); err == nil && schedule.Contains(options, requested) {
			return lex.Delegate{Slots: t.slots}
		}
		message = notice + msgUnavailable
	}

	if len(options) == 1 {
		only := options[0]
		t.slots.Set(lex.SlotTime, only.String())
		return lex.ConfirmIntent{
			IntentName: t.req.IntentName,
			Slots:      t.slots,
			Message:    fmt.Sprintf("%s%s is our only availability, does that work for you?", message, schedule.FormatTime(only)),
			ResponseCard: lex.NewResponseCard("Confirm Appointment",
				fmt.Sprintf("Is %s on %s okay?", schedule.FormatTime(only), date), yesNoOptions),
		}
	}

	return t.elicit(lex.SlotTime, message+AvailableTimeString(options),
		lex.NewResponseCard("Specify Time", msgWhichTime, timeOptions(options)))
}

// fulfill books the appointment. Missing or invalid slots fall back to the
// dialog so the user is asked again.
func (o *Orchestrator) fulfill(ctx context.Context, t *turn) (lex.Directive, error) {
	typeName, _ := t.slots.Get(lex.SlotAppointmentType)
	date, hasDate := t.slots.Get(lex.SlotDate)
	clock, hasTime := t.slots.Get(lex.SlotTime)
	if !hasDate || !hasTime || !validation.Validate(t.catalog, typeName, date, clock, t.today).Valid {
		o.logger.Warn("fulfillment invoked with incomplete slots", "user_id", t.req.UserID)
		return o.converse(ctx, t)
	}

	apptType, _ := t.catalog.Lookup(typeName)
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	start, err := schedule.ParseTimeOfDay(clock)
	if err != nil {
		return nil, err
	}

	ctx, span := fulfillmentTracer.Start(ctx, "fulfillment.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.appointment_type", apptType.Name),
		attribute.String("scheduler.date", date),
		attribute.String("scheduler.start", start.String()),
	)

	free, err := o.freeSlots(ctx, t, day, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !schedule.Contains(schedule.FilterByDuration(free, apptType.DurationMinutes), start) {
		o.metrics.ObserveBooking(bookingConflict)
		o.logger.Info("requested time no longer free", "date", date, "start", start, "user_id", t.req.UserID)
		t.slots.Clear(lex.SlotTime)
		return o.offerTimes(t, apptType, day, free, "", msgJustBooked), nil
	}

	appt, err := o.store.InsertAppointment(ctx, appointments.NewAppointment{
		AppointmentType: apptType.Name,
		Date:            day,
		Start:           start,
		End:             start.Add(apptType.DurationMinutes),
	})
	if err != nil {
		o.metrics.ObserveBooking(bookingError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert appointment")
		return nil, fmt.Errorf("fulfillment: book appointment: %w", err)
	}
	o.metrics.ObserveBooking(bookingBooked)
	span.SetAttributes(attribute.String("scheduler.appointment_id", appt.ID))
	o.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"appointment_type", appt.AppointmentType,
		"date", date,
		"start", appt.Start,
		"end", appt.End,
	)

	if _, err := o.freeSlots(ctx, t, day, true); err != nil {
		o.logger.Warn("failed to refresh availability after booking", "date", date, "error", err)
		delete(t.bookings, date)
		t.dirty = true
	}
	o.publish(ctx, *appt)

	return lex.Close{
		FulfillmentState: lex.Fulfilled,
		Message: fmt.Sprintf("Okay, I have booked your appointment.  We will see you at %s on %s",
			schedule.FormatTime(start), date),
	}, nil
}

func (o *Orchestrator) publish(ctx context.Context, appt appointments.Appointment) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishBooked(ctx, appt); err != nil {
		o.logger.Warn("failed to publish booking event", "appointment_id", appt.ID, "error", err)
	}
}

// freeSlots returns the day's free grid, from the session cache unless
// refresh is set. Fresh reads are cached back into the session.
func (o *Orchestrator) freeSlots(ctx context.Context, t *turn, day time.Time, refresh bool) ([]schedule.TimeOfDay, error) {
	key := day.Format(schedule.DateLayout)
	if !refresh {
		if cached, ok := t.bookings.Lookup(key); ok {
			o.metrics.ObserveAvailabilityLookup(lookupSession)
			return cached, nil
		}
	}

	reserved, err := o.store.ReservedIntervals(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: load reservations for %s: %w", key, err)
	}
	o.metrics.ObserveAvailabilityLookup(lookupStore)
	free := schedule.FreeSlotsOn(day, reserved)
	t.bookings[key] = free
	t.dirty = true
	return free, nil
}

// optionsFor builds the buttons shown when re-asking for a rejected slot.
// Time options come only from availability already cached this session.
func (t *turn) optionsFor(slot lex.SlotName) []lex.Button {
	switch slot {
	case lex.SlotAppointmentType:
		return typeOptions(t.catalog)
	case lex.SlotDate:
		return dateOptions(t.today)
	case lex.SlotTime:
		typeName, _ := t.slots.Get(lex.SlotAppointmentType)
		date, _ := t.slots.Get(lex.SlotDate)
		apptType, ok := t.catalog.Lookup(typeName)
		if !ok || date == "" {
			return nil
		}
		cached, ok := t.bookings.Lookup(date)
		if !ok {
			return nil
		}
		return timeOptions(schedule.FilterByDuration(cached, apptType.DurationMinutes))
	default:
		return nil
	}
}

func (t *turn) elicit(slot lex.SlotName, message string, card *lex.ResponseCard) lex.Directive {
	return lex.ElicitSlot{
		IntentName:   t.req.IntentName,
		Slots:        t.slots,
		SlotToElicit: slot,
		Message:      message,
		ResponseCard: card,
	}
}

// attachSession fills the outgoing session attributes, writing the booking
// map back when this turn changed it.
func (t *turn) attachSession(d lex.Directive) (lex.Directive, error) {
	session := t.req.SessionAttributes
	if t.dirty {
		encoded, err := t.bookings.Encode()
		if err != nil {
			return nil, err
		}
		session[SessionKeyBookingMap] = encoded
	}
	switch v := d.(type) {
	case lex.ElicitSlot:
		v.SessionAttributes = session
		return v, nil
	case lex.ConfirmIntent:
		v.SessionAttributes = session
		return v, nil
	case lex.Delegate:
		v.SessionAttributes = session
		return v, nil
	case lex.Close:
		v.SessionAttributes = session
		return v, nil
	default:
		return nil, errors.New("fulfillment: no directive produced")
	}
}
