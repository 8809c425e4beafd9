package appointments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

type dynamoAPI interface {
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// appointmentRecord mirrors an item in the Appointments table.
type appointmentRecord struct {
	AppID           string `dynamodbav:"AppID"`
	AppointmentType string `dynamodbav:"AppointmentType"`
	Date            string `dynamodbav:"Date"`
	Time            string `dynamodbav:"Time"`
	End             string `dynamodbav:"End"`
	BookedAt        string `dynamodbav:"BookedAt,omitempty"`
}

// DynamoTables names the tables and index the store reads.
type DynamoTables struct {
	AppointmentTypes string
	Appointments     string
	DateIndex        string
}

// DynamoStore implements Store on DynamoDB.
type DynamoStore struct {
	client dynamoAPI
	tables DynamoTables
	logger *logging.Logger
	newID  func() string
	now    func() time.Time
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tables DynamoTables, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if tables.AppointmentTypes == "" || tables.Appointments == "" || tables.DateIndex == "" {
		panic("appointments: table names cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{
		client: client,
		tables: tables,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// ListAppointmentTypes scans the whole AppointmentType table.
func (s *DynamoStore) ListAppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	var (
		out       []AppointmentType
		startKeys map[string]types.AttributeValue
	)
	for {
		resp, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tables.AppointmentTypes),
			ExclusiveStartKey: startKeys,
		})
		if err != nil {
			return nil, fmt.Errorf("appointments: failed to scan appointment types: %w", err)
		}
		for _, item := range resp.Items {
			t, err := decodeAppointmentType(item)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKeys = resp.LastEvaluatedKey
	}
	return out, nil
}

// ReservedIntervals queries the date index for every booking on date.
func (s *DynamoStore) ReservedIntervals(ctx context.Context, date time.Time) ([]schedule.Interval, error) {
	day := date.Format(schedule.DateLayout)
	var (
		out       []schedule.Interval
		startKeys map[string]types.AttributeValue
	)
	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tables.Appointments),
			IndexName:              aws.String(s.tables.DateIndex),
			KeyConditionExpression: aws.String("#date = :date"),
			ProjectionExpression:   aws.String("#time, #end"),
			ExpressionAttributeNames: map[string]string{
				"#date": "Date",
				"#time": "Time",
				"#end":  "End",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":date": &types.AttributeValueMemberS{Value: day},
			},
			ExclusiveStartKey: startKeys,
		})
		if err != nil {
			return nil, fmt.Errorf("appointments: failed to query reservations for %s: %w", day, err)
		}

		var records []appointmentRecord
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &records); err != nil {
			return nil, fmt.Errorf("appointments: failed to decode reservations: %w", err)
		}
		for _, rec := range records {
			iv, err := parseInterval(rec.Time, rec.End)
			if err != nil {
				return nil, fmt.Errorf("appointments: reservation on %s: %w", day, err)
			}
			out = append(out, iv)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKeys = resp.LastEvaluatedKey
	}
	return out, nil
}

// InsertAppointment writes a new item under a fresh AppID.
func (s *DynamoStore) InsertAppointment(ctx context.Context, appt NewAppointment) (*Appointment, error) {
	saved := &Appointment{
		NewAppointment: appt,
		ID:             s.newID(),
		BookedAt:       s.now().UTC(),
	}
	item, err := attributevalue.MarshalMap(appointmentRecord{
		AppID:           saved.ID,
		AppointmentType: appt.AppointmentType,
		Date:            appt.Date.Format(schedule.DateLayout),
		Time:            appt.Start.String(),
		End:             appt.End.String(),
		BookedAt:        saved.BookedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: failed to marshal appointment: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Appointments),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(AppID)"),
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: failed to persist appointment: %w", err)
	}
	s.logger.Debug("appointment persisted", "appointment_id", saved.ID, "date", appt.Date.Format(schedule.DateLayout), "start", appt.Start.String())
	return saved, nil
}

// decodeAppointmentType accepts Duration stored either as a number or as a
// numeric string.
func decodeAppointmentType(item map[string]types.AttributeValue) (AppointmentType, error) {
	var name string
	if v, ok := item["Name"].(*types.AttributeValueMemberS); ok {
		name = strings.TrimSpace(v.Value)
	}
	if name == "" {
		return AppointmentType{}, fmt.Errorf("%w: appointment type without Name", ErrInvalidRecord)
	}

	var raw string
	switch v := item["Duration"].(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	default:
		return AppointmentType{}, fmt.Errorf("%w: appointment type %q has no Duration", ErrInvalidRecord, name)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes <= 0 {
		return AppointmentType{}, errors.Join(ErrInvalidRecord, fmt.Errorf("appointments: appointment type %q has bad Duration %q", name, raw))
	}
	return AppointmentType{Name: name, DurationMinutes: minutes}, nil
}
