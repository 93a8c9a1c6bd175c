package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/marshalhq/marshals-api/internal/config"
	"go.uber.org/zap"
)

// PushResult aggregates per-token outcomes of one push batch.
type PushResult struct {
	SuccessCount int
	FailureCount int
}

// PushSender delivers push notifications. Individual token failures are
// counted, never returned as errors; the error return is reserved for total
// channel unavailability (e.g. a misconfigured client).
type PushSender interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) (PushResult, error)
}

type sender struct {
	client *sns.Client
	log    *zap.Logger
}

func NewSender(cfg *config.Config, log *zap.Logger) (PushSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg), log: log}, nil
}

// pushPayload is the platform-agnostic message published per endpoint.
type pushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// SendPush publishes one message per device token (SNS platform endpoint
// ARN). A token that fails to publish increments FailureCount and is logged;
// it never aborts the rest of the batch.
func (s *sender) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) (PushResult, error) {
	payload, err := json.Marshal(pushPayload{Title: title, Body: body, Data: data})
	if err != nil {
		return PushResult{}, fmt.Errorf("marshal push payload: %w", err)
	}
	msg := string(payload)

	var res PushResult
	for _, token := range tokens {
		_, err := s.client.Publish(ctx, &sns.PublishInput{
			TargetArn: aws.String(token),
			Message:   &msg,
		})
		if err != nil {
			res.FailureCount++
			s.log.Warn("push publish failed", zap.String("token", token), zap.Error(err))
			continue
		}
		res.SuccessCount++
	}
	return res, nil
}
