package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

// EventTypeBooked tags messages announcing a new appointment.
const EventTypeBooked = "appointment.booked"

type sqsAPI interface {
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// BookedEvent is the JSON body published for each booking.
type BookedEvent struct {
	Type            string `json:"type"`
	AppointmentID   string `json:"appointmentId"`
	AppointmentType string `json:"appointmentType"`
	Date            string `json:"date"`
	Start           string `json:"start"`
	End             string `json:"end"`
	BookedAt        string `json:"bookedAt"`
}

// SQSPublisher implements EventPublisher on an SQS queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
}

var _ EventPublisher = (*SQSPublisher)(nil)

// NewSQSPublisher creates a publisher for the given queue.
func NewSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if client == nil {
		panic("appointments: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("appointments: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) PublishBooked(ctx context.Context, appt Appointment) error {
	body, err := json.Marshal(BookedEvent{
		Type:            EventTypeBooked,
		AppointmentID:   appt.ID,
		AppointmentType: appt.AppointmentType,
		Date:            appt.Date.Format(schedule.DateLayout),
		Start:           appt.Start.String(),
		End:             appt.End.String(),
		BookedAt:        appt.BookedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("appointments: failed to encode booked event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(EventTypeBooked)},
		},
	})
	if err != nil {
		return fmt.Errorf("appointments: failed to send SQS message: %w", err)
	}
	return nil
}
