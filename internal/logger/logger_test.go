package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesCategoryAndCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Warn("checkin", "duplicate scan")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "[CHECKIN   ]")
	assert.Contains(t, out, "duplicate scan")
	assert.Contains(t, out, "logger_test.go")
}

func TestSpecializedHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.LogCheckIn("RECORD", "u1", "e1", "ticket issued")
	l.LogSecurity("SESSION", "revoked token presented")
	l.LogDatabase("MIGRATE", "schema_migrations", "current version 3")

	out := buf.String()
	assert.Contains(t, out, "[RECORD] user=u1 event=e1 - ticket issued")
	assert.Contains(t, out, "[SECURITY  ]")
	assert.Contains(t, out, "[MIGRATE] schema_migrations - current version 3")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("APP", "ignored") })
}

func TestMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetLevel(WARN)

	l.Debug("APP", "hidden debug")
	l.Info("APP", "hidden info")
	l.Error("APP", "shown error")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown error")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, ERROR, ParseLevel(" Error "))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := middleware.RequestID(RequestLogger(New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set(middleware.RequestIDHeader, "scan-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "GET /api/events - 418")
	assert.Contains(t, out, "req=scan-42")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "[API       ]")
}

func TestRequestLoggerDefaultsToOK(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, buf.String(), "GET /healthz - 200")
	assert.Contains(t, buf.String(), "INFO")
	assert.NotContains(t, buf.String(), "req=")
}
