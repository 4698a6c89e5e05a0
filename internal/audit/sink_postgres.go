package audit

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/database"
	"intent-classifier/internal/models"
)

const defaultAuditTable = "classification_audit"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSink inserts one row per submission.
type PostgresSink struct {
	db        *database.PostgresClient
	table     string
	insertSQL string
}

func NewPostgresSink(db *database.PostgresClient, table string) (*PostgresSink, error) {
	if table == "" {
		table = defaultAuditTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}

	placeholders := make([]string, len(models.AuditColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return &PostgresSink{
		db:    db,
		table: table,
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(models.AuditColumns, ", "), strings.Join(placeholders, ", ")),
	}, nil
}

// EnsureSchema creates the audit table when it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	input_text TEXT NOT NULL,
	intents_taxonomy TEXT NOT NULL,
	entities_taxonomy TEXT NOT NULL,
	result_intents TEXT NOT NULL,
	result_entities TEXT NOT NULL,
	explanation TEXT NOT NULL,
	language TEXT NOT NULL,
	response_time TEXT NOT NULL,
	model_name TEXT NOT NULL,
	model_provider TEXT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	return err
}

func (s *PostgresSink) Name() string { return config.SinkPostgres }

func (s *PostgresSink) Append(ctx context.Context, row models.AuditRow) error {
	_, err := s.db.Exec(ctx, s.insertSQL, row.Values()...)
	return err
}

func (s *PostgresSink) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
