package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/settlement-archiver/internal/replay"
	"github.com/angelmondragon/settlement-archiver/pkg/config"
	"github.com/angelmondragon/settlement-archiver/pkg/metrics"
	"github.com/angelmondragon/settlement-archiver/pkg/security"
)

type stubReplayer struct {
	calls int
}

func (s *stubReplayer) Replay(_ context.Context, items [][]byte) replay.Summary {
	s.calls++
	return replay.Summary{Attempted: len(items)}
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev},
		Admin:   config.AdminConfig{Secret: "s3cret"},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestRouter(t *testing.T, replayer *stubReplayer) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	pm := metrics.NewPipelineMetrics(reg)
	pm.IncEvent("settlement", metrics.OutcomeArchived)
	return NewRouter(RouterParams{
		Config:   testConfig(),
		Replayer: replayer,
		Gatherer: reg,
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, &stubReplayer{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestReplayRequiresBasicAuth(t *testing.T) {
	replayer := &stubReplayer{}
	router := newTestRouter(t, replayer)

	req := httptest.NewRequest(http.MethodPost, "/admin/settlements/replay", strings.NewReader(`[]`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if replayer.calls != 0 {
		t.Fatal("replay must not run without credentials")
	}
}

func TestReplayWithCredentials(t *testing.T) {
	replayer := &stubReplayer{}
	router := newTestRouter(t, replayer)

	req := httptest.NewRequest(http.MethodPost, "/admin/settlements/replay", strings.NewReader(`[{"@id":"a"}]`))
	req.SetBasicAuth("admin", "s3cret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if replayer.calls != 1 {
		t.Fatalf("expected one replay, got %d", replayer.calls)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubReplayer{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "events_total") {
		t.Fatalf("expected events_total in exposition, got %s", resp.Body.String())
	}
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	router := NewRouter(RouterParams{Config: cfg, Replayer: &stubReplayer{}, Gatherer: prometheus.NewRegistry()})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestReplayWithHashedSecret(t *testing.T) {
	hash, err := security.HashSecret("s3cret", security.ArgonParams{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32})
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	cfg := testConfig()
	cfg.Admin.Secret = hash
	replayer := &stubReplayer{}
	router := NewRouter(RouterParams{Config: cfg, Replayer: replayer, Compare: security.CompareSecret})

	req := httptest.NewRequest(http.MethodPost, "/admin/settlements/replay", strings.NewReader(`[]`))
	req.SetBasicAuth("admin", "s3cret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if replayer.calls != 1 {
		t.Fatalf("expected one replay, got %d", replayer.calls)
	}
}
