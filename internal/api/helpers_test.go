package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yogastudio/internal/config"
	"yogastudio/internal/database"
	"yogastudio/internal/models"
	"yogastudio/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db  *database.DB
	ts  *httptest.Server
	srv *HTTPServer
}

func testConfig() *config.APIConfig {
	return &config.APIConfig{
		HTTP:     config.APIHTTPConfig{Port: 0},
		CORS:     config.APICORSConfig{AllowedOrigins: []string{"*"}},
		PagesDir: "testdata/pages",
		Location: time.UTC,
	}
}

func newTestEnv(t *testing.T, db *database.DB, cfg *config.APIConfig) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	if db == nil {
		var err error
		db, err = database.NewDB(":memory:", &logger)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
	}
	if cfg == nil {
		cfg = testConfig()
	}

	svc := Services{
		Bookings:      service.NewBookingService(db, nil, &logger),
		Subscriptions: service.NewSubscriptionService(db, nil, &logger),
		Classes:       service.NewClassService(db, nil, time.Minute, &logger),
	}
	srv := NewHTTPServer(cfg, svc, db, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{db: db, ts: ts, srv: srv}
}

func (e *testEnv) user(t *testing.T, telegramID int64) *models.User {
	t.Helper()
	u := &models.User{TelegramID: telegramID, FullName: "Мария Смирнова", Phone: "+79990000000", AgreedToOffer: true}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) class(t *testing.T, startsIn time.Duration, seats int) *models.Class {
	t.Helper()
	c := &models.Class{
		Name:            "Йога для начинающих",
		Description:     "Базовые асаны",
		StartsAt:        time.Now().Add(startsIn).Truncate(time.Second),
		MaxParticipants: seats,
		Price:           800,
	}
	require.NoError(t, e.db.CreateClass(context.Background(), c))
	return c
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) post(t *testing.T, path string, payload any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	switch p := payload.(type) {
	case string:
		buf.WriteString(p)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(p))
	}
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func errorBody(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Error
}
