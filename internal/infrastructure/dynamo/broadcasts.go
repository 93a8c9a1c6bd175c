package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/marshalhq/marshals-api/internal/domain"
)

// BroadcastRepo provides typed DynamoDB operations for the broadcasts audit table.
type BroadcastRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBroadcastRepo(client *dynamodb.Client, tableName string) *BroadcastRepo {
	return &BroadcastRepo{client: client, tableName: tableName}
}

func (r *BroadcastRepo) Put(ctx context.Context, b *domain.BroadcastMessage) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Scan returns all broadcast audit records. The table is append-only and
// small; admins list it rarely.
func (r *BroadcastRepo) Scan(ctx context.Context) ([]domain.BroadcastMessage, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var broadcasts []domain.BroadcastMessage
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &broadcasts); err != nil {
		return nil, err
	}
	return broadcasts, nil
}
