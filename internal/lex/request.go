// Package lex translates between Amazon Lex V1 code hook events and the
// typed requests and directives used by the fulfillment logic.
package lex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Phase is the Lex invocation source.
type Phase string

const (
	PhaseDialog      Phase = "DialogCodeHook"
	PhaseFulfillment Phase = "FulfillmentCodeHook"
)

var (
	// ErrMissingIntent is returned for events without a current intent.
	ErrMissingIntent = errors.New("lex: event has no current intent")
	// ErrUnknownPhase is returned for an invocation source other than the two code hooks.
	ErrUnknownPhase = errors.New("lex: unknown invocation source")
)

// SlotName identifies one of the intent's slots.
type SlotName string

const (
	SlotAppointmentType SlotName = "AppointmentType"
	SlotDate            SlotName = "Date"
	SlotTime            SlotName = "Time"
)

// Slots holds the three slot values. A nil pointer means the slot is unset.
type Slots struct {
	AppointmentType *string
	Date            *string
	Time            *string
}

// Get returns the trimmed slot value. Blank values count as unset.
func (s Slots) Get(name SlotName) (string, bool) {
	p := s.ptr(name)
	if p == nil || *p == nil {
		return "", false
	}
	v := strings.TrimSpace(**p)
	return v, v != ""
}

// Set fills a slot.
func (s *Slots) Set(name SlotName, value string) {
	if p := s.ptr(name); p != nil {
		*p = &value
	}
}

// Clear empties a slot so Lex elicits it again.
func (s *Slots) Clear(name SlotName) {
	if p := s.ptr(name); p != nil {
		*p = nil
	}
}

func (s *Slots) ptr(name SlotName) **string {
	switch name {
	case SlotAppointmentType:
		return &s.AppointmentType
	case SlotDate:
		return &s.Date
	case SlotTime:
		return &s.Time
	default:
		return nil
	}
}

func (s Slots) wire() map[string]*string {
	return map[string]*string{
		string(SlotAppointmentType): s.AppointmentType,
		string(SlotDate):            s.Date,
		string(SlotTime):            s.Time,
	}
}

// Request is one conversational turn.
type Request struct {
	Phase             Phase
	IntentName        string
	UserID            string
	BotName           string
	Slots             Slots
	SessionAttributes map[string]string
}

// FromEvent validates and copies a Lex event into a Request. The event's maps
// are not shared with the result.
func FromEvent(evt events.LexEvent) (Request, error) {
	if evt.CurrentIntent == nil || strings.TrimSpace(evt.CurrentIntent.Name) == "" {
		return Request{}, ErrMissingIntent
	}
	phase := Phase(evt.InvocationSource)
	if phase != PhaseDialog && phase != PhaseFulfillment {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownPhase, evt.InvocationSource)
	}

	req := Request{
		Phase:             phase,
		IntentName:        evt.CurrentIntent.Name,
		UserID:            evt.UserID,
		SessionAttributes: make(map[string]string, len(evt.SessionAttributes)),
	}
	if evt.Bot != nil {
		req.BotName = evt.Bot.Name
	}
	for k, v := range evt.SessionAttributes {
		req.SessionAttributes[k] = v
	}
	for _, name := range []SlotName{SlotAppointmentType, SlotDate, SlotTime} {
		if v := evt.CurrentIntent.Slots[string(name)]; v != nil {
			req.Slots.Set(name, *v)
		}
	}
	return req, nil
}
