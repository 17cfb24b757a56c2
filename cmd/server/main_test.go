package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hearsay/internal/config"
	"hearsay/internal/db"
	"hearsay/internal/ratelimit"
	"hearsay/internal/test"
	"hearsay/pkg/tasks"
)

func audioServer(t *testing.T) *httptest.Server {
	body := make([]byte, 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodGet {
			w.Write(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		DispatchMode: mode,
		WorkerToken:  "secret",
		MaxFileSize:  1 << 20,
		QuotaLimit:   5,
		QuotaWindow:  time.Hour,
		APIRate:      100,
		APIBurst:     100,
	}
}

func TestPostTranscribeQueueMode(t *testing.T) {
	// 1. Setup mock database
	conn, mock := test.NewMockDB(t)

	// 2. Setup mock task enqueuer
	mockEnqueuer := &test.MockTaskEnqueuer{}

	// 3. Setup App with mocks
	files := audioServer(t)
	app := &App{
		cfg:         testConfig(config.DispatchQueue),
		records:     db.NewRecordStore(conn),
		limiter:     ratelimit.NewMemoryStore(5, time.Hour, nil),
		asynqClient: mockEnqueuer,
		httpClient:  files.Client(),
	}

	// 4. Define mock expectations
	fileURL := files.URL + "/episode.mp3"
	mock.ExpectQuery(`SELECT .* FROM records WHERE input_url = \$1 OR fingerprint = \$2`).
		WithArgs(fileURL, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO records`).
		WithArgs(fileURL, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	// 5. Call the router
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"url":"`+fileURL+`"}`))
	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, req)

	// 6. Assertions
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"status":"success","id":42}`, rr.Body.String())

	require.Len(t, mockEnqueuer.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypeDispatchTranscription, mockEnqueuer.EnqueuedTasks[0].Type())
	var p tasks.DispatchTranscriptionPayload
	require.NoError(t, json.Unmarshal(mockEnqueuer.EnqueuedTasks[0].Payload(), &p))
	assert.Equal(t, int64(42), p.RecordID)
	assert.Equal(t, fileURL, p.AudioURL)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostTranscribeHTTPModeWorkerDown(t *testing.T) {
	conn, mock := test.NewMockDB(t)
	files := audioServer(t)
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer worker.Close()

	cfg := testConfig(config.DispatchHTTP)
	cfg.WorkerURL = worker.URL
	app := &App{
		cfg:        cfg,
		records:    db.NewRecordStore(conn),
		limiter:    ratelimit.NewMemoryStore(5, time.Hour, nil),
		httpClient: files.Client(),
	}

	fileURL := files.URL + "/episode.mp3"
	mock.ExpectQuery(`SELECT .* FROM records WHERE input_url = \$1 OR fingerprint = \$2`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"url":"`+fileURL+`"}`))
	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), `"transcribe-kickoff-fail"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaExhausted(t *testing.T) {
	conn, _ := test.NewMockDB(t)
	files := audioServer(t)
	limiter := ratelimit.NewMemoryStore(1, time.Hour, nil)
	allowed, err := limiter.Allow(context.Background(), "192.0.2.1")
	require.NoError(t, err)
	require.True(t, allowed)

	app := &App{
		cfg:         testConfig(config.DispatchQueue),
		records:     db.NewRecordStore(conn),
		limiter:     limiter,
		asynqClient: &test.MockTaskEnqueuer{},
		httpClient:  files.Client(),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"url":"`+files.URL+`/a.mp3"}`))
	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), `"rate-limit"`)
}
