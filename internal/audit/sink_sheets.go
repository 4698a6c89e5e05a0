package audit

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"intent-classifier/internal/common/config"
	"intent-classifier/internal/models"
)

const defaultSheetsRange = "A1"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SheetsSink appends rows to the first worksheet of a Google spreadsheet.
type SheetsSink struct {
	service       *sheets.Service
	spreadsheetID string
	rng           string
}

// NewSheetsSink authorizes with the base64 service-account credentials held
// in cfg. The decoded key stays in memory.
func NewSheetsSink(ctx context.Context, cfg config.SheetsConfig) (*SheetsSink, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.Credentials))
	if err != nil {
		return nil, fmt.Errorf("decode sheets credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope, sheets.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}

	return NewSheetsSinkWithOptions(ctx, cfg, option.WithCredentials(creds))
}

// NewSheetsSinkWithOptions builds the sink from explicit client options.
func NewSheetsSinkWithOptions(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) (*SheetsSink, error) {
	id, err := SpreadsheetID(cfg.URL)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	rng := cfg.Range
	if rng == "" {
		rng = defaultSheetsRange
	}

	return &SheetsSink{service: service, spreadsheetID: id, rng: rng}, nil
}

// SpreadsheetID extracts the document ID from a spreadsheet URL.
func SpreadsheetID(url string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("no spreadsheet ID in %q", url)
	}
	return m[1], nil
}

func (s *SheetsSink) Name() string { return config.SinkSheets }

func (s *SheetsSink) Append(ctx context.Context, row models.AuditRow) error {
	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: [][]interface{}{row.Values()}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Ping fetches the spreadsheet ID, which fails when the document does not
// exist or is not shared with the service account.
func (s *SheetsSink) Ping(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", s.spreadsheetID, err)
	}
	return nil
}

func (s *SheetsSink) Close() error { return nil }
