package logx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.77:5123":    "203.0.113.0",
		"203.0.113.77":         "203.0.113.0",
		"127.0.0.1:80":         "127.0.0.1",
		"[2001:db8:1:2::7]:80": "2001:db8:1:2::",
		"not an ip":            "unknown_ip",
	}

	for in, want := range cases {
		assert.Equal(t, want, AnonymizeIP(in), in)
	}
}

func TestHelpers_WriteStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	Info("room created", "room_code", "AB12")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "room created", line["message"])
	assert.Equal(t, "AB12", line["room_code"])
}

func TestHelpers_OddFieldsAreDropped(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	Warn("odd", "dangling")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &line))
	assert.Equal(t, "odd", line["message"])
	assert.NotContains(t, line, "dangling")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	logger := Component("Registry")
	logger.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Registry", line["component"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	InitGlobalLoggerTo(&buf, false)

	r := chi.NewRouter()
	r.Use(RequestLogger())
	r.Get("/api/rooms/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZ99", nil)
	req.RemoteAddr = "198.51.100.23:4000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "198.51.100.0", line["remote_ip"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
}
