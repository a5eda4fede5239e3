package alertapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vpasslabs/signalbot/core/config"
	"github.com/vpasslabs/signalbot/internal/dispatch"
	"github.com/vpasslabs/signalbot/internal/topic"
)

type fakeDispatcher struct {
	lastTopic topic.Topic
	lastBody  string
	report    dispatch.Report
	err       error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, t topic.Topic, body string) (dispatch.Report, error) {
	f.lastTopic = t
	f.lastBody = body
	return f.report, f.err
}

func newTestServer(d Dispatcher) http.Handler {
	return New(config.AlertAPIConfig{Listen: "127.0.0.1", Port: 0}, d, prometheus.NewRegistry()).srv.Handler
}

func postAlert(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAlertDelivered(t *testing.T) {
	d := &fakeDispatcher{report: dispatch.Report{Attempted: 3, Failed: []dispatch.Failure{{Recipient: 42}}}}
	rec := postAlert(t, newTestServer(d), `{"message":"BUY GOLD @ 2400","topic":"gold"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp alertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q, want success", resp.Status)
	}
	if resp.SentTo == nil || *resp.SentTo != 2 {
		t.Fatalf("sent_to = %v, want 2", resp.SentTo)
	}
	if d.lastTopic != "gold" || d.lastBody != "BUY GOLD @ 2400" {
		t.Fatalf("dispatched (%q, %q)", d.lastTopic, d.lastBody)
	}
}

func TestAlertMissingTopicBroadcasts(t *testing.T) {
	d := &fakeDispatcher{report: dispatch.Report{Attempted: 1}}
	postAlert(t, newTestServer(d), `{"message":"market update"}`)

	if !d.lastTopic.IsBroadcast() {
		t.Fatalf("topic = %q, want broadcast sentinel", d.lastTopic)
	}
}

func TestAlertNoSubscribers(t *testing.T) {
	d := &fakeDispatcher{report: dispatch.Report{}}
	rec := postAlert(t, newTestServer(d), `{"message":"nobody listens","topic":"gold"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"no_subscribers"`) {
		t.Fatalf("body = %s, want no_subscribers", rec.Body.String())
	}
}

func TestAlertRejectsMissingMessage(t *testing.T) {
	d := &fakeDispatcher{}
	for _, body := range []string{`{"topic":"gold"}`, `{not json`, `{"message":""}`} {
		rec := postAlert(t, newTestServer(d), body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Fatalf("body %q: response = %s, want error status", body, rec.Body.String())
		}
	}
	if d.lastBody != "" {
		t.Fatalf("dispatcher invoked for malformed input: %q", d.lastBody)
	}
}

func TestAlertDispatchErrorIs500(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("store unavailable")}
	rec := postAlert(t, newTestServer(d), `{"message":"BUY","topic":"gold"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(&fakeDispatcher{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
