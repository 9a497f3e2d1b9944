package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/itemsapi/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

func TestLivenessHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	httpx.LivenessHandler("items-api").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp httpx.LivenessResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Service != "items-api" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Timestamp == "" {
		t.Error("expected timestamp")
	}
}

func TestReadinessHandler(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name       string
		checks     httpx.HealthChecks
		wantStatus int
		want       map[string]string
	}{
		{
			name: "all healthy",
			checks: httpx.HealthChecks{
				Database: &stubChecker{}, Redis: &stubChecker{}, EventBus: &stubChecker{},
			},
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "ok", "database": "ok", "redis": "ok", "event_bus": "ok"},
		},
		{
			name:       "optional deps disabled",
			checks:     httpx.HealthChecks{Database: &stubChecker{}},
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "ok", "redis": "disabled", "event_bus": "disabled"},
		},
		{
			name:       "database down",
			checks:     httpx.HealthChecks{Database: &stubChecker{err: down}},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"status": "degraded", "database": "unreachable"},
		},
		{
			name: "redis down",
			checks: httpx.HealthChecks{
				Database: &stubChecker{}, Redis: &stubChecker{err: down},
			},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"status": "degraded", "database": "ok", "redis": "unreachable"},
		},
		{
			name: "event bus down",
			checks: httpx.HealthChecks{
				Database: &stubChecker{}, EventBus: &stubChecker{err: down},
			},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"status": "degraded", "event_bus": "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httpx.ReadinessHandler(tt.checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ready", http.NoBody))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for k, v := range tt.want {
				if resp[k] != v {
					t.Errorf("%s: got %v, want %q", k, resp[k], v)
				}
			}
		})
	}
}

func TestReadinessHandler_IncludesPoolStats(t *testing.T) {
	h := httpx.ReadinessHandler(httpx.HealthChecks{
		Database: &stubChecker{},
		Stats:    func() any { return map[string]int{"open_connections": 3} },
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ready", http.NoBody))

	var resp struct {
		Pool map[string]int `json:"pool"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pool["open_connections"] != 3 {
		t.Errorf("expected pool stats, got %+v", resp.Pool)
	}
}
