package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/infrastructure/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			HTTPPort:       0,
			AllowedOrigins: []string{"https://example.org"},
		},
		Log: config.LogConfig{Level: "debug", Format: "json"},
	}
}

func teapot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout")) //nolint:errcheck
	})
}

func TestServer_RequestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewServer(testConfig(), logger, teapot())

	req := httptest.NewRequest(http.MethodGet, "/api/info?x=1", nil)
	req.Header.Set("X-Forwarded-For", " , 10.0.0.1, 10.0.0.2")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, "/api/info", entry.Data["path"])
	assert.Equal(t, "x=1", entry.Data["query"])
	assert.Equal(t, "10.0.0.1", entry.Data["client_ip"])
	assert.Equal(t, len("short and stout"), entry.Data["bytes"])
}

func TestServer_CORS(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewServer(testConfig(), logger, teapot())

	req := httptest.NewRequest(http.MethodOptions, "/api/lookup", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/lookup", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewServer(testConfig(), logger, teapot())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg.Log.Format = "text"
	logger, err = NewLogger(cfg)
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	cfg.Log.Level = "chatty"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}
