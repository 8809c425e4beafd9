package appointments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

var testTables = DynamoTables{
	AppointmentTypes: "AppointmentType",
	Appointments:     "Appointments",
	DateIndex:        "Date-Time-index",
}

type mockDynamo struct {
	scanOutputs  []*dynamodb.ScanOutput
	scanInputs   []*dynamodb.ScanInput
	queryOutputs []*dynamodb.QueryOutput
	queryInputs  []*dynamodb.QueryInput
	putInput     *dynamodb.PutItemInput
	scanErr      error
	queryErr     error
	putErr       error
}

func (m *mockDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.scanInputs = append(m.scanInputs, in)
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	out := m.scanOutputs[0]
	m.scanOutputs = m.scanOutputs[1:]
	return out, nil
}

func (m *mockDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInputs = append(m.queryInputs, in)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if len(m.queryOutputs) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	out := m.queryOutputs[0]
	m.queryOutputs = m.queryOutputs[1:]
	return out, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = in
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func typeItem(name string, duration types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"Name":     &types.AttributeValueMemberS{Value: name},
		"Duration": duration,
	}
}

func reservationItem(start, end string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"Time": &types.AttributeValueMemberS{Value: start},
		"End":  &types.AttributeValueMemberS{Value: end},
	}
}

func TestDynamoStore_ListAppointmentTypesFollowsPages(t *testing.T) {
	mock := &mockDynamo{scanOutputs: []*dynamodb.ScanOutput{
		{
			Items: []map[string]types.AttributeValue{
				typeItem("Consultation", &types.AttributeValueMemberN{Value: "30"}),
			},
			LastEvaluatedKey: map[string]types.AttributeValue{"Name": &types.AttributeValueMemberS{Value: "Consultation"}},
		},
		{
			Items: []map[string]types.AttributeValue{
				typeItem("Cleaning", &types.AttributeValueMemberS{Value: "60"}),
			},
		},
	}}
	store := NewDynamoStore(mock, testTables, logging.Default())

	got, err := store.ListAppointmentTypes(context.Background())
	if err != nil {
		t.Fatalf("ListAppointmentTypes returned error: %v", err)
	}
	want := []AppointmentType{{Name: "Consultation", DurationMinutes: 30}, {Name: "Cleaning", DurationMinutes: 60}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected types %#v", got)
	}
	if len(mock.scanInputs) != 2 || mock.scanInputs[1].ExclusiveStartKey == nil {
		t.Fatalf("expected second scan to resume from LastEvaluatedKey")
	}
	if aws.ToString(mock.scanInputs[0].TableName) != "AppointmentType" {
		t.Fatalf("unexpected table %s", aws.ToString(mock.scanInputs[0].TableName))
	}
}

func TestDynamoStore_ListAppointmentTypesRejectsBadDuration(t *testing.T) {
	mock := &mockDynamo{scanOutputs: []*dynamodb.ScanOutput{{
		Items: []map[string]types.AttributeValue{
			typeItem("Cleaning", &types.AttributeValueMemberS{Value: "an hour"}),
		},
	}}}
	store := NewDynamoStore(mock, testTables, nil)

	_, err := store.ListAppointmentTypes(context.Background())
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestDynamoStore_ListAppointmentTypesPropagatesError(t *testing.T) {
	store := NewDynamoStore(&mockDynamo{scanErr: errors.New("throttled")}, testTables, nil)
	_, err := store.ListAppointmentTypes(context.Background())
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestDynamoStore_ReservedIntervalsQueriesDateIndex(t *testing.T) {
	mock := &mockDynamo{queryOutputs: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{
			reservationItem("09:00", "10:00"),
			reservationItem("13:30", "14:00"),
		},
	}}}
	store := NewDynamoStore(mock, testTables, nil)
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	got, err := store.ReservedIntervals(context.Background(), date)
	if err != nil {
		t.Fatalf("ReservedIntervals returned error: %v", err)
	}
	want := []schedule.Interval{
		{Start: schedule.At(9, 0), End: schedule.At(10, 0)},
		{Start: schedule.At(13, 30), End: schedule.At(14, 0)},
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected intervals %#v", got)
	}

	in := mock.queryInputs[0]
	if aws.ToString(in.IndexName) != "Date-Time-index" {
		t.Fatalf("expected date index, got %s", aws.ToString(in.IndexName))
	}
	if in.ExpressionAttributeNames["#date"] != "Date" {
		t.Fatalf("expected reserved word Date to be aliased, got %v", in.ExpressionAttributeNames)
	}
	day := in.ExpressionAttributeValues[":date"].(*types.AttributeValueMemberS).Value
	if day != "2026-10-19" {
		t.Fatalf("expected date key 2026-10-19, got %s", day)
	}
}

func TestDynamoStore_ReservedIntervalsRejectsCorruptRows(t *testing.T) {
	mock := &mockDynamo{queryOutputs: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{reservationItem("10:00", "09:00")},
	}}}
	store := NewDynamoStore(mock, testTables, nil)

	_, err := store.ReservedIntervals(context.Background(), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestDynamoStore_InsertAppointmentPersistsItem(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoStore(mock, testTables, logging.Default())

	saved, err := store.InsertAppointment(context.Background(), NewAppointment{
		AppointmentType: "Consultation",
		Date:            time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Start:           schedule.At(10, 0),
		End:             schedule.At(10, 30),
	})
	if err != nil {
		t.Fatalf("InsertAppointment returned error: %v", err)
	}
	if _, err := uuid.Parse(saved.ID); err != nil {
		t.Fatalf("expected uuid appointment id, got %q", saved.ID)
	}

	var stored appointmentRecord
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored item: %v", err)
	}
	if stored.AppID != saved.ID || stored.Date != "2026-10-19" || stored.Time != "10:00" || stored.End != "10:30" {
		t.Fatalf("unexpected stored item %#v", stored)
	}
	if stored.BookedAt == "" {
		t.Fatal("expected BookedAt to be populated")
	}
	if expr := mock.putInput.ConditionExpression; expr == nil || *expr != "attribute_not_exists(AppID)" {
		t.Fatalf("expected condition expression to prevent overwrites, got %v", expr)
	}
}

func TestDynamoStore_InsertAppointmentPropagatesError(t *testing.T) {
	store := NewDynamoStore(&mockDynamo{putErr: errors.New("dynamo failed")}, testTables, nil)
	_, err := store.InsertAppointment(context.Background(), NewAppointment{AppointmentType: "Cleaning"})
	if err == nil || !strings.Contains(err.Error(), "dynamo failed") {
		t.Fatalf("expected dynamo error, got %v", err)
	}
}

func TestNewDynamoStorePanicsWithoutTables(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty table names")
		}
	}()
	NewDynamoStore(&mockDynamo{}, DynamoTables{}, nil)
}
