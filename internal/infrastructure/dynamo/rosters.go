package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/marshalhq/marshals-api/internal/domain"
)

// RosterRepo provides typed DynamoDB operations for the roster_entries table.
type RosterRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRosterRepo(client *dynamodb.Client, tableName string) *RosterRepo {
	return &RosterRepo{client: client, tableName: tableName}
}

func (r *RosterRepo) Put(ctx context.Context, e *domain.RosterEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal roster entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RosterRepo) Get(ctx context.Context, entryID string) (*domain.RosterEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("entry_id", entryID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("roster entry not found: %w", domain.ErrNotFound)
	}
	var e domain.RosterEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByEvent queries the event_id-marshal_id GSI for all entries on an event.
func (r *RosterRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.RosterEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("event_id-marshal_id-index"),
		KeyConditionExpression: aws.String("event_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: eventID},
		},
	})
	if err != nil {
		return nil, err
	}
	var entries []domain.RosterEntry
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetByEventAndMarshal fetches the entry for one (event, marshal) pair via
// the composite GSI. Returns ErrNotFound when no entry exists.
func (r *RosterRepo) GetByEventAndMarshal(ctx context.Context, eventID, marshalID string) (*domain.RosterEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("event_id-marshal_id-index"),
		KeyConditionExpression: aws.String("event_id = :eid AND marshal_id = :mid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: eventID},
			":mid": &types.AttributeValueMemberS{Value: marshalID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("roster entry not found: %w", domain.ErrNotFound)
	}
	var e domain.RosterEntry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByMarshal queries the marshal_id GSI for all entries of one marshal.
func (r *RosterRepo) ListByMarshal(ctx context.Context, marshalID string) ([]domain.RosterEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("marshal_id-index"),
		KeyConditionExpression: aws.String("marshal_id = :mid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":mid": &types.AttributeValueMemberS{Value: marshalID},
		},
	})
	if err != nil {
		return nil, err
	}
	var entries []domain.RosterEntry
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *RosterRepo) Update(ctx context.Context, entryID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("entry_id", entryID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
