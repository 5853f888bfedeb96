package metric

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Handler(t *testing.T) {
	r := NewMetricsRegistry()
	r.CoreMetrics().RecordMessageReceived("telegram-processor", "dlms.telegram.v1")

	healthy := true
	srv := NewServer(0, "", r, func() error {
		if !healthy {
			return fmt.Errorf("profile not loaded")
		}
		return nil
	})
	h := srv.Handler()

	tests := []struct {
		name     string
		path     string
		unhealth bool
		status   int
		contains string
	}{
		{name: "metrics", path: "/metrics", status: http.StatusOK, contains: "dlms_meter_messages_received_total"},
		{name: "health ok", path: "/health", status: http.StatusOK, contains: "OK"},
		{name: "health failing", path: "/health", unhealth: true, status: http.StatusServiceUnavailable, contains: "profile not loaded"},
		{name: "index", path: "/", status: http.StatusOK, contains: `href="/metrics"`},
		{name: "unknown path", path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthy = !tt.unhealth
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(19464, "/metrics", NewMetricsRegistry(), nil)
	require.NoError(t, srv.Start())
	assert.Error(t, srv.Start(), "second start must fail")

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.Address())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx))
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	srv := NewServer(19465, "", nil, nil)
	assert.Error(t, srv.Start())
}
