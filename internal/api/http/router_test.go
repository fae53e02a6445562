package http

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/api/http/handlers"
	"github.com/pezhmanazar/phoenix-admin/internal/auth"
	"github.com/pezhmanazar/phoenix-admin/internal/observability"
	"github.com/pezhmanazar/phoenix-admin/internal/persistence"
)

type seenRequest struct {
	method, path, query, auth, cookie, contentType, body string
}

type backend struct {
	*httptest.Server
	mu      sync.Mutex
	seen    []seenRequest
	release chan struct{}
	entered chan struct{}
}

func newBackend(t *testing.T, status int, body string) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.seen = append(b.seen, seenRequest{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			auth:        r.Header.Get("Authorization"),
			cookie:      r.Header.Get("Cookie"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(data),
		})
		entered, release := b.entered, b.release
		b.mu.Unlock()
		if entered != nil {
			entered <- struct{}{}
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Backend", "yes")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) requests() []seenRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]seenRequest(nil), b.seen...)
}

func newTestApp(backendURL string) (*fiber.App, *observability.Metrics) {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("phoenix-admin", "test", backendURL, nil, metrics),
		Proxy:   handlers.NewProxyHandler(backendURL, APIPrefix, 5*time.Second, persistence.NewMemoryReplyGuard(time.Minute), metrics, logger),
		Session: auth.NewSessionMiddleware("admin_token", auth.NewTokenInspector(0)),
	})
	return app, metrics
}

func decode(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestForwardAttachesBearerFromCookie(t *testing.T) {
	b := newBackend(t, nethttp.StatusOK, `{"tickets":[]}`)
	app, _ := newTestApp(b.URL)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/tickets?status=open&page=2", nil)
	req.AddCookie(&nethttp.Cookie{Name: "admin_token", Value: "opaque-token"})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"tickets":[]}` || resp.Header.Get("X-Backend") != "yes" {
		t.Fatalf("response not relayed: %s %v", body, resp.Header)
	}

	seen := b.requests()
	if len(seen) != 1 {
		t.Fatalf("backend saw %d requests", len(seen))
	}
	got := seen[0]
	if got.path != "/tickets" || got.query != "status=open&page=2" {
		t.Fatalf("forwarded to %s?%s", got.path, got.query)
	}
	if got.auth != "Bearer opaque-token" {
		t.Fatalf("Authorization = %q", got.auth)
	}
	if got.cookie != "" {
		t.Fatalf("cookie leaked to backend: %q", got.cookie)
	}
}

func TestForwardRelaysReplyBodyAndStatus(t *testing.T) {
	b := newBackend(t, nethttp.StatusInternalServerError, `{"ok":false,"error":"upload_failed"}`)
	app, metrics := newTestApp(b.URL)

	req := httptest.NewRequest(nethttp.MethodPost, "/api/tickets/T1/reply", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer header-token")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != nethttp.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	if out["error"] != "upload_failed" {
		t.Fatalf("body = %v", out)
	}

	got := b.requests()[0]
	if got.method != nethttp.MethodPost || got.path != "/tickets/T1/reply" || got.body != `{"text":"hello"}` {
		t.Fatalf("forwarded = %+v", got)
	}
	if got.contentType != "application/json" || got.auth != "Bearer header-token" {
		t.Fatalf("headers = %+v", got)
	}
	if metrics.Snapshot().Replies["proxy|rejected"] != 1 {
		t.Fatalf("replies = %v", metrics.Snapshot().Replies)
	}
}

func TestMissingCredentialIsUnauthorized(t *testing.T) {
	b := newBackend(t, nethttp.StatusOK, `{}`)
	app, _ := newTestApp(b.URL)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/tickets", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	if out["ok"] != false || out["error"] != "unauthorized" {
		t.Fatalf("body = %v", out)
	}
	if len(b.requests()) != 0 {
		t.Fatal("unauthenticated request reached the backend")
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	b := newBackend(t, nethttp.StatusOK, `{}`)
	app, _ := newTestApp(b.URL)

	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(nethttp.MethodGet, "/api/tickets/T1", nil)
	req.AddCookie(&nethttp.Cookie{Name: "admin_token", Value: token})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out := decode(t, resp); out["message"] != "session_expired" {
		t.Fatalf("body = %v", out)
	}
}

func TestConcurrentReplyIsRefused(t *testing.T) {
	b := newBackend(t, nethttp.StatusOK, `{"ok":true}`)
	b.entered = make(chan struct{}, 1)
	b.release = make(chan struct{})
	app, _ := newTestApp(b.URL)

	send := func() (*nethttp.Response, error) {
		req := httptest.NewRequest(nethttp.MethodPost, "/api/tickets/T1/reply", strings.NewReader(`{"text":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&nethttp.Cookie{Name: "admin_token", Value: "tok"})
		return app.Test(req, -1)
	}

	first := make(chan *nethttp.Response, 1)
	go func() {
		resp, err := send()
		if err != nil {
			t.Errorf("first send: %v", err)
		}
		first <- resp
	}()
	select {
	case <-b.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first reply never reached the backend")
	}

	resp, err := send()
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if resp.StatusCode != nethttp.StatusConflict {
		t.Fatalf("second status = %d, want 409", resp.StatusCode)
	}
	if out := decode(t, resp); out["ok"] != false || out["error"] != "send_in_progress" {
		t.Fatalf("second body = %v", out)
	}

	close(b.release)
	if r := <-first; r == nil || r.StatusCode != nethttp.StatusOK {
		t.Fatalf("first reply = %v", r)
	}
	if n := len(b.requests()); n != 1 {
		t.Fatalf("backend saw %d replies, want 1", n)
	}
}

func TestBackendDownIsBadGateway(t *testing.T) {
	b := newBackend(t, nethttp.StatusOK, `{}`)
	url := b.URL
	b.Close()
	app, _ := newTestApp(url)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/tickets", nil)
	req.AddCookie(&nethttp.Cookie{Name: "admin_token", Value: "tok"})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != nethttp.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out := decode(t, resp); out["error"] != "bad_gateway" {
		t.Fatalf("body = %v", out)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	b := newBackend(t, nethttp.StatusNotFound, `{}`)
	app, _ := newTestApp(b.URL)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil), -1)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("ready status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	deps, _ := out["dependencies"].(map[string]any)
	if deps["backend"] != "ok" || deps["redis"] != "disabled" {
		t.Fatalf("dependencies = %v", out)
	}

	resp, err = app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if _, ok := decode(t, resp)["requests"]; !ok {
		t.Fatal("metrics snapshot missing requests")
	}
}
