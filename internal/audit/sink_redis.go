package audit

import (
	"context"

	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/database"
	"intent-classifier/internal/models"
)

const defaultAuditStream = "classification:audit"

// RedisSink adds one stream entry per submission.
type RedisSink struct {
	client *database.RedisClient
	stream string
}

func NewRedisSink(client *database.RedisClient, stream string) *RedisSink {
	if stream == "" {
		stream = defaultAuditStream
	}
	return &RedisSink{client: client, stream: stream}
}

func (s *RedisSink) Name() string { return config.SinkRedis }

func (s *RedisSink) Append(ctx context.Context, row models.AuditRow) error {
	_, err := s.client.XAdd(ctx, s.stream, streamValues(row))
	return err
}

func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

func streamValues(row models.AuditRow) []interface{} {
	cells := row.Values()
	values := make([]interface{}, 0, 2*len(cells))
	for i, col := range models.AuditColumns {
		values = append(values, col, cells[i])
	}
	return values
}
