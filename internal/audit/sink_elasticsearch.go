package audit

import (
	"context"

	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/database"
	"intent-classifier/internal/models"
)

const defaultAuditIndex = "classification-audit"

// ElasticsearchSink indexes one document per submission.
type ElasticsearchSink struct {
	client *database.ElasticsearchClient
	index  string
}

func NewElasticsearchSink(client *database.ElasticsearchClient, index string) *ElasticsearchSink {
	if index == "" {
		index = defaultAuditIndex
	}
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Name() string { return config.SinkElasticsearch }

func (s *ElasticsearchSink) Append(ctx context.Context, row models.AuditRow) error {
	return s.client.IndexDocument(ctx, s.index, row)
}

func (s *ElasticsearchSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *ElasticsearchSink) Close() error { return nil }
