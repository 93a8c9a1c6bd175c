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

// AttendanceRepo provides typed DynamoDB operations for the attendance_requests table.
type AttendanceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttendanceRepo(client *dynamodb.Client, tableName string) *AttendanceRepo {
	return &AttendanceRepo{client: client, tableName: tableName}
}

func (r *AttendanceRepo) Put(ctx context.Context, req *domain.AttendanceRequest) error {
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("marshal attendance request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AttendanceRepo) Get(ctx context.Context, requestID string) (*domain.AttendanceRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("request_id", requestID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("attendance request not found: %w", domain.ErrNotFound)
	}
	var req domain.AttendanceRequest
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByEvent queries the event_id GSI. When status is non-empty the result
// is filtered to that status server-side.
func (r *AttendanceRepo) ListByEvent(ctx context.Context, eventID, status string) ([]domain.AttendanceRequest, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("event_id-index"),
		KeyConditionExpression: aws.String("event_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: eventID},
		},
	}
	if status != "" {
		in.FilterExpression = aws.String("#s = :st")
		in.ExpressionAttributeNames = map[string]string{"#s": fieldStatus}
		in.ExpressionAttributeValues[":st"] = &types.AttributeValueMemberS{Value: status}
	}
	out, err := r.client.Query(ctx, in)
	if err != nil {
		return nil, err
	}
	var reqs []domain.AttendanceRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListByMarshal queries the marshal_id GSI.
func (r *AttendanceRepo) ListByMarshal(ctx context.Context, marshalID string) ([]domain.AttendanceRequest, error) {
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
	var reqs []domain.AttendanceRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListByStatus queries the status GSI across all events, following
// pagination. Used by broadcast targeting for the approved/pending filters.
func (r *AttendanceRepo) ListByStatus(ctx context.Context, status string) ([]domain.AttendanceRequest, error) {
	var reqs []domain.AttendanceRequest
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("status-index"),
			KeyConditionExpression: aws.String("#s = :st"),
			ExpressionAttributeNames: map[string]string{
				"#s": fieldStatus,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":st": &types.AttributeValueMemberS{Value: status},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.AttendanceRequest
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		reqs = append(reqs, page...)
		if out.LastEvaluatedKey == nil {
			return reqs, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (r *AttendanceRepo) Update(ctx context.Context, requestID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
