package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"intent-classifier/internal/common/config"
	"intent-classifier/internal/models"
)

const testSheetURL = "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0"

func TestSpreadsheetID(t *testing.T) {
	id, err := SpreadsheetID(testSheetURL)
	require.NoError(t, err)
	assert.Equal(t, "1AbC-dEf_123", id)

	_, err = SpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestSheetsSink_Append(t *testing.T) {
	var body struct {
		Values [][]interface{} `json:"values"`
	}
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v4/spreadsheets/1AbC-dEf_123/values/A1:append", r.URL.Path)
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId":"1AbC-dEf_123","updates":{"updatedRows":1}}`)
	}))
	defer server.Close()

	ctx := context.Background()
	sink, err := NewSheetsSinkWithOptions(ctx, config.SheetsConfig{URL: testSheetURL},
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	row := models.NewAuditRow("demo", time.Now(), models.ModelInfo{Name: "m", Provider: "groq"}, sampleRecord())
	require.NoError(t, sink.Append(ctx, row))

	assert.Equal(t, 1, calls)
	require.Len(t, body.Values, 1)
	assert.Len(t, body.Values[0], len(models.AuditColumns))
	assert.Equal(t, "demo", body.Values[0][0])
	assert.Equal(t, "hola, soy Juan de Madrid", body.Values[0][3])
	assert.Equal(t, "groq", body.Values[0][12])
}

func TestSheetsSink_AppendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
	}))
	defer server.Close()

	ctx := context.Background()
	sink, err := NewSheetsSinkWithOptions(ctx, config.SheetsConfig{URL: testSheetURL},
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	err = sink.Append(ctx, models.NewAuditRow("demo", time.Now(), models.ModelInfo{}, sampleRecord()))
	assert.Error(t, err)
}

func TestNewSheetsSink_BadCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := NewSheetsSink(ctx, config.SheetsConfig{URL: testSheetURL, Credentials: "***not base64***"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode sheets credentials")

	_, err = NewSheetsSink(ctx, config.SheetsConfig{
		URL:         testSheetURL,
		Credentials: base64.StdEncoding.EncodeToString([]byte(`not json`)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse sheets credentials")
}

func TestSheetsSink_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"shared spreadsheet", http.StatusOK, `{"spreadsheetId":"1AbC-dEf_123"}`, false},
		{"missing spreadsheet", http.StatusNotFound, `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`, true},
		{"not shared", http.StatusForbidden, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v4/spreadsheets/1AbC-dEf_123", r.URL.Path)
				assert.Equal(t, "spreadsheetId", r.URL.Query().Get("fields"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			sink, err := NewSheetsSinkWithOptions(context.Background(), config.SheetsConfig{URL: testSheetURL},
				option.WithEndpoint(server.URL+"/"),
				option.WithHTTPClient(server.Client()),
			)
			require.NoError(t, err)

			err = sink.Ping(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "open spreadsheet 1AbC-dEf_123")
				return
			}
			assert.NoError(t, err)
		})
	}
}
