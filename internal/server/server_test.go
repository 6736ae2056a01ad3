package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/iquant-greeting/internal/platform/config"
)

const wantGreeting = "Hello, welcome to iQuant YouTube Channel!"

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestRootReturnsGreeting(t *testing.T) {
	resp := do(t, New(testConfig(), "test").Handler(), http.MethodGet, "/")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != wantGreeting {
		t.Fatalf("expected %q, got %q", wantGreeting, body)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	if id := resp.Header().Get(chimiddleware.RequestIDHeader); id == "" {
		t.Fatal("expected request ID header")
	}
	if got := resp.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected security headers, got X-Content-Type-Options=%q", got)
	}
}

func TestUnknownPathReturnsNotFound(t *testing.T) {
	h := New(testConfig(), "test").Handler()

	for _, path := range []string{"/nope", "/missing", "/hello"} {
		resp := do(t, h, http.MethodGet, path)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.Code)
		}
		if strings.Contains(resp.Body.String(), wantGreeting) {
			t.Fatalf("%s: greeting leaked into 404 body", path)
		}
		var problem huma.ErrorModel
		if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
			t.Fatalf("%s: expected problem JSON: %v", path, err)
		}
	}

	if resp := do(t, h, http.MethodGet, "/"); resp.Code != http.StatusOK || resp.Body.String() != wantGreeting {
		t.Fatalf("server stopped serving the greeting after 404s: %d %q", resp.Code, resp.Body.String())
	}
}

func TestFrameworkDocumentRoutesAreNotServed(t *testing.T) {
	h := New(testConfig(), "test").Handler()

	for _, path := range []string{
		"/openapi.json",
		"/openapi.yaml",
		"/openapi-3.0.json",
		"/docs",
		"/schemas/ErrorModel.json",
	} {
		resp := do(t, h, http.MethodGet, path)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.Code)
		}
	}

	resp := do(t, h, http.MethodGet, "/nope")
	if strings.Contains(resp.Body.String(), "$schema") {
		t.Fatalf("problem body should not link to a schema endpoint: %s", resp.Body.String())
	}
}

func TestOtherMethodsOnRootNotAllowed(t *testing.T) {
	h := New(testConfig(), "test").Handler()

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		resp := do(t, h, method, "/")
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, resp.Code)
		}
		if allow := resp.Header().Get("Allow"); allow != http.MethodGet {
			t.Fatalf("%s: expected Allow: GET, got %q", method, allow)
		}
		if strings.Contains(resp.Body.String(), wantGreeting) {
			t.Fatalf("%s: greeting leaked into 405 body", method)
		}
	}
}

func TestConcurrentRequestsDoNotInterfere(t *testing.T) {
	h := New(testConfig(), "test").Handler()

	const n = 100
	var wg sync.WaitGroup
	bad := make(chan string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := "/"
			if i%5 == 0 {
				target = "/nope"
			}
			resp := do(t, h, http.MethodGet, target)
			if target == "/" && (resp.Code != http.StatusOK || resp.Body.String() != wantGreeting) {
				bad <- resp.Body.String()
			}
		}()
	}
	wg.Wait()
	close(bad)

	for body := range bad {
		t.Errorf("unexpected body under concurrency: %q", body)
	}
}

func TestServeEndToEnd(t *testing.T) {
	srv := New(testConfig(), "test")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := client.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		return resp.StatusCode, string(body)
	}

	if code, body := get("/"); code != http.StatusOK || body != wantGreeting {
		t.Fatalf("GET /: got %d %q", code, body)
	}
	if code, body := get("/missing"); code != http.StatusNotFound || strings.Contains(body, wantGreeting) {
		t.Fatalf("GET /missing: got %d %q", code, body)
	}
	if code, body := get("/"); code != http.StatusOK || body != wantGreeting {
		t.Fatalf("GET / after 404: got %d %q", code, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if _, err := client.Get(base + "/"); err == nil {
		t.Fatal("expected connection error after shutdown")
	}
}

func TestListenAndServeFailsWhenPortInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer occupied.Close()

	cfg := testConfig()
	_, cfg.Port, _ = net.SplitHostPort(occupied.Addr().String())

	err = New(cfg, "test").ListenAndServe(context.Background())
	if err == nil {
		t.Fatal("expected bind error")
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected wrapped *net.OpError, got %T: %v", err, err)
	}
}

func TestServeReturnsListenerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_ = ln.Close()

	err = New(testConfig(), "test").Serve(context.Background(), ln)
	if err == nil {
		t.Fatal("expected error serving on a closed listener")
	}
}

func TestOpenAPIVersion(t *testing.T) {
	srv := New(testConfig(), "1.2.3")
	if got := srv.API().OpenAPI().Info.Version; got != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", got)
	}
}
