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

// batchGetChunk is the DynamoDB BatchGetItem limit per request.
const batchGetChunk = 100

// MarshalRepo provides typed DynamoDB operations for the marshals table.
type MarshalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMarshalRepo(client *dynamodb.Client, tableName string) *MarshalRepo {
	return &MarshalRepo{client: client, tableName: tableName}
}

func (r *MarshalRepo) Put(ctx context.Context, m *domain.Marshal) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal marshal record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MarshalRepo) Get(ctx context.Context, marshalID string) (*domain.Marshal, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("marshal_id", marshalID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("marshal not found: %w", domain.ErrNotFound)
	}
	var m domain.Marshal
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByEmail looks up a marshal via the email GSI.
func (r *MarshalRepo) GetByEmail(ctx context.Context, email string) (*domain.Marshal, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("marshal not found: %w", domain.ErrNotFound)
	}
	var m domain.Marshal
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActive queries the enable-index GSI for all enabled marshals,
// following pagination until the index is exhausted.
func (r *MarshalRepo) ListActive(ctx context.Context) ([]domain.Marshal, error) {
	var marshals []domain.Marshal
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("enable-index"),
			KeyConditionExpression: aws.String("#e = :one"),
			ExpressionAttributeNames: map[string]string{
				"#e": fieldEnable,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":one": &types.AttributeValueMemberN{Value: "1"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Marshal
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		marshals = append(marshals, page...)
		if out.LastEvaluatedKey == nil {
			return marshals, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// GetBatch fetches marshals by ID via BatchGetItem, chunking at the service
// limit. Missing IDs are silently absent from the result.
func (r *MarshalRepo) GetBatch(ctx context.Context, marshalIDs []string) ([]domain.Marshal, error) {
	var marshals []domain.Marshal
	for start := 0; start < len(marshalIDs); start += batchGetChunk {
		end := start + batchGetChunk
		if end > len(marshalIDs) {
			end = len(marshalIDs)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range marshalIDs[start:end] {
			keys = append(keys, strKey("marshal_id", id))
		}
		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Marshal
		if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &page); err != nil {
			return nil, err
		}
		marshals = append(marshals, page...)
	}
	return marshals, nil
}

func (r *MarshalRepo) Update(ctx context.Context, marshalID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("marshal_id", marshalID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *MarshalRepo) SoftDelete(ctx context.Context, marshalID string) error {
	return r.Update(ctx, marshalID, map[string]interface{}{
		fieldEnable:    0,
		fieldDeletedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
