package audit

import (
	"context"
	"fmt"
	"time"

	"intent-classifier/internal/common/aws"
	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/database"
)

const startupPingTimeout = 10 * time.Second

// NewSinkFromConfig builds the sink selected by cfg.Sink and checks that it
// is reachable. The sink is closed again when the check fails.
func NewSinkFromConfig(ctx context.Context, cfg config.AuditConfig) (Sink, error) {
	switch cfg.Sink {
	case config.SinkSheets, "":
		sink, err := NewSheetsSink(ctx, cfg.Sheets)
		if err != nil {
			return nil, err
		}
		return verified(ctx, sink)

	case config.SinkPostgres:
		db, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		sink, err := NewPostgresSink(db, cfg.Postgres.Table)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if _, err := verified(ctx, sink); err != nil {
			return nil, err
		}
		if err := sink.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare audit table: %w", err)
		}
		return sink, nil

	case config.SinkRedis:
		client, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return verified(ctx, NewRedisSink(client, cfg.Redis.Stream))

	case config.SinkElasticsearch:
		client, err := database.NewElasticsearch(cfg.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		return verified(ctx, NewElasticsearchSink(client, cfg.Elasticsearch.Index))

	case config.SinkSNS:
		client, err := aws.NewSNSClient(ctx, cfg.SNS.Region)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSNSSink(client, cfg.SNS.TopicARN), nil

	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.Sink)
	}
}

func verified(ctx context.Context, sink Sink) (Sink, error) {
	p, ok := sink.(Pinger)
	if !ok {
		return sink, nil
	}

	ctx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("audit sink %s unreachable: %w", sink.Name(), err)
	}
	return sink, nil
}
