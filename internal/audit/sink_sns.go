package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"intent-classifier/internal/common/aws"
	"intent-classifier/internal/common/config"
	"intent-classifier/internal/models"
)

// SNSSink publishes each row as a JSON message.
type SNSSink struct {
	client   *aws.SNSClient
	topicARN string
}

func NewSNSSink(client *aws.SNSClient, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

func (s *SNSSink) Name() string { return config.SinkSNS }

func (s *SNSSink) Append(ctx context.Context, row models.AuditRow) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal audit row: %w", err)
	}

	_, err = s.client.PublishMessage(ctx, s.topicARN, "", string(body), map[string]string{
		"label":          row.Label,
		"model_provider": row.ModelProvider,
	})
	return err
}

func (s *SNSSink) Close() error { return nil }
