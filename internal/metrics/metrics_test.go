package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zoomrender/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics, update func()) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := metrics.New()
	m.SetProgress(3, 10)
	m.ObserveAttempt(false, time.Second)
	m.ObserveAttempt(true, 2*time.Second)
	m.FrameCompleted(2*time.Second, 12.5)
	m.IncRetryExhausted()

	body := scrape(t, m, nil)
	for _, want := range []string{
		`zoomrender_frames_rendered_total 1`,
		`zoomrender_render_attempts_total{result="failure"} 1`,
		`zoomrender_render_attempts_total{result="success"} 1`,
		`zoomrender_retry_exhausted_total 1`,
		`zoomrender_session_rendered_frames 3`,
		`zoomrender_session_total_frames 10`,
		`zoomrender_zoom_level 12.5`,
		`zoomrender_frame_duration_seconds_count 1`,
		`zoomrender_attempt_duration_seconds_count 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
}

func TestHandlerRefreshesGauges(t *testing.T) {
	m := metrics.New()
	body := scrape(t, m, func() { m.SetProgress(7, 9) })
	if !strings.Contains(body, "zoomrender_session_rendered_frames 7") {
		t.Fatalf("update hook not applied:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.SetProgress(1, 2)
	m.ObserveAttempt(true, time.Second)
	m.FrameCompleted(time.Second, 1)
	m.IncRetryExhausted()

	w := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from nil metrics, got %d", w.Code)
	}
}
