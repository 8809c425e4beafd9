package lex

import (
	"errors"
	"fmt"
)

// ActionType is the dialogAction.type Lex expects.
type ActionType string

const (
	ActionElicitSlot    ActionType = "ElicitSlot"
	ActionConfirmIntent ActionType = "ConfirmIntent"
	ActionDelegate      ActionType = "Delegate"
	ActionClose         ActionType = "Close"
)

// FulfillmentState is reported on Close.
type FulfillmentState string

const Fulfilled FulfillmentState = "Fulfilled"

const (
	// MaxButtons is the most buttons Lex renders on a generic card.
	MaxButtons = 5

	cardContentType  = "application/vnd.amazonaws.card.generic"
	plainTextContent = "PlainText"
)

// Button is one selectable option on a response card.
type Button struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// ResponseCard is a single generic attachment with up to MaxButtons buttons.
type ResponseCard struct {
	Title    string
	Subtitle string
	Buttons  []Button
}

// NewResponseCard builds a card, keeping at most MaxButtons options. It
// returns nil when there is nothing to choose from.
func NewResponseCard(title, subtitle string, options []Button) *ResponseCard {
	if len(options) == 0 {
		return nil
	}
	if len(options) > MaxButtons {
		options = options[:MaxButtons]
	}
	buttons := make([]Button, len(options))
	copy(buttons, options)
	return &ResponseCard{Title: title, Subtitle: subtitle, Buttons: buttons}
}

// Directive is one of ElicitSlot, ConfirmIntent, Delegate or Close.
type Directive interface {
	Action() ActionType
	isDirective()
}

// ElicitSlot asks the user for SlotToElicit.
type ElicitSlot struct {
	SessionAttributes map[string]string
	IntentName        string
	Slots             Slots
	SlotToElicit      SlotName
	Message           string
	ResponseCard      *ResponseCard
}

// ConfirmIntent asks the user to accept the filled slots.
type ConfirmIntent struct {
	SessionAttributes map[string]string
	IntentName        string
	Slots             Slots
	Message           string
	ResponseCard      *ResponseCard
}

// Delegate hands the next step back to Lex.
type Delegate struct {
	SessionAttributes map[string]string
	Slots             Slots
}

// Close ends the conversation.
type Close struct {
	SessionAttributes map[string]string
	FulfillmentState  FulfillmentState
	Message           string
}

func (ElicitSlot) Action() ActionType    { return ActionElicitSlot }
func (ConfirmIntent) Action() ActionType { return ActionConfirmIntent }
func (Delegate) Action() ActionType      { return ActionDelegate }
func (Close) Action() ActionType         { return ActionClose }

func (ElicitSlot) isDirective()    {}
func (ConfirmIntent) isDirective() {}
func (Delegate) isDirective()      {}
func (Close) isDirective()         {}

// Response is the JSON document returned to Lex.
type Response struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	DialogAction      DialogAction      `json:"dialogAction"`
}

// DialogAction is the wire form of a Directive.
type DialogAction struct {
	Type             ActionType         `json:"type"`
	IntentName       string             `json:"intentName,omitempty"`
	Slots            map[string]*string `json:"slots,omitempty"`
	SlotToElicit     string             `json:"slotToElicit,omitempty"`
	FulfillmentState FulfillmentState   `json:"fulfillmentState,omitempty"`
	Message          *WireMessage       `json:"message,omitempty"`
	ResponseCard     *WireCard          `json:"responseCard,omitempty"`
}

type WireMessage struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type WireCard struct {
	Version            int              `json:"version"`
	ContentType        string           `json:"contentType"`
	GenericAttachments []WireAttachment `json:"genericAttachments"`
}

type WireAttachment struct {
	Title    string   `json:"title"`
	SubTitle string   `json:"subTitle"`
	Buttons  []Button `json:"buttons"`
}

// ErrNilDirective is returned when Encode is given nothing to encode.
var ErrNilDirective = errors.New("lex: nil directive")

// Encode renders a directive in the Lex V1 response shape.
func Encode(d Directive) (Response, error) {
	var (
		session map[string]string
		action  DialogAction
	)
	switch v := d.(type) {
	case ElicitSlot:
		session = v.SessionAttributes
		action = DialogAction{
			Type:         ActionElicitSlot,
			IntentName:   v.IntentName,
			Slots:        v.Slots.wire(),
			SlotToElicit: string(v.SlotToElicit),
			Message:      plainText(v.Message),
			ResponseCard: v.ResponseCard.wire(),
		}
	case ConfirmIntent:
		session = v.SessionAttributes
		action = DialogAction{
			Type:         ActionConfirmIntent,
			IntentName:   v.IntentName,
			Slots:        v.Slots.wire(),
			Message:      plainText(v.Message),
			ResponseCard: v.ResponseCard.wire(),
		}
	case Delegate:
		session = v.SessionAttributes
		action = DialogAction{Type: ActionDelegate, Slots: v.Slots.wire()}
	case Close:
		session = v.SessionAttributes
		action = DialogAction{
			Type:             ActionClose,
			FulfillmentState: v.FulfillmentState,
			Message:          plainText(v.Message),
		}
	case nil:
		return Response{}, ErrNilDirective
	default:
		return Response{}, fmt.Errorf("lex: unsupported directive %T", d)
	}
	if session == nil {
		session = map[string]string{}
	}
	return Response{SessionAttributes: session, DialogAction: action}, nil
}

func plainText(content string) *WireMessage {
	if content == "" {
		return nil
	}
	return &WireMessage{ContentType: plainTextContent, Content: content}
}

func (c *ResponseCard) wire() *WireCard {
	if c == nil {
		return nil
	}
	return &WireCard{
		Version:     1,
		ContentType: cardContentType,
		GenericAttachments: []WireAttachment{{
			Title:    c.Title,
			SubTitle: c.Subtitle,
			Buttons:  c.Buttons,
		}},
	}
}
