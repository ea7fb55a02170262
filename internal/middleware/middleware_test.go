package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatal("no request id generated")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, context = %q", rec.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" {
		t.Errorf("incoming request id not kept, got %q", seen)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), RequestIDMiddleware, LoggingMiddleware(log))

	req := httptest.NewRequest(http.MethodGet, "/edit/42", nil)
	req.Header.Set(RequestIDHeader, "log-req")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["path"] != "/edit/42" || entry["request_id"] != "log-req" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := map[string]string{
		"/":            "/",
		"/create":      "/create",
		"/edit/17":     "/edit/{id}",
		"/toggle/9999": "/toggle/{id}",
		"/metrics":     "/metrics",
		"/edit/abc":    "/edit/{id}",
		"/a/x1":        "other",
		"/zz/yy":       "other",
		"/edit/1/2":    "other",
		"/edit/":       "other",
		"/favicon.ico": "other",
	}
	for in, want := range tests {
		if got := normalizeRoute(in); got != want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	counter := requestsTotal.WithLabelValues(http.MethodGet, "/delete/{id}", "404")
	before := testutil.ToFloat64(counter)

	h := MetricsMiddleware(http.NotFoundHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/delete/5", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/delete/6", nil))

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("counter increased by %v, want 2", got)
	}
	if got := testutil.ToFloat64(inFlightRequests); got != 0 {
		t.Errorf("in-flight gauge = %v after requests finished", got)
	}

	unknown := requestsTotal.WithLabelValues(http.MethodGet, "other", "404")
	before = testutil.ToFloat64(unknown)
	for _, p := range []string{"/a/x1", "/a/x2", "/zz/yy", "/wp-login.php"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if got := testutil.ToFloat64(unknown) - before; got != 4 {
		t.Errorf("unknown paths counted %v times under \"other\", want 4", got)
	}

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("/metrics does not expose http_requests_total")
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("header %s not set", header)
		}
	}
}

func postForm(form url.Values, cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: cookie})
	}
	return req
}

func TestCSRFMiddleware(t *testing.T) {
	var token string
	h := CSRFMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// GET ohne Cookie setzt ein neues Token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/create", nil))
	if rec.Code != http.StatusOK || token == "" {
		t.Fatalf("GET: status %d, token %q", rec.Code, token)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != token {
		t.Fatalf("GET did not set csrf cookie matching the context token: %v", cookies)
	}

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no cookie", postForm(url.Values{CSRFFieldName: {token}}, ""), http.StatusForbidden},
		{"no field", postForm(url.Values{"title": {"x"}}, token), http.StatusForbidden},
		{"mismatch", postForm(url.Values{CSRFFieldName: {"other"}}, token), http.StatusForbidden},
		{"form field", postForm(url.Values{CSRFFieldName: {token}}, token), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	t.Run("header", func(t *testing.T) {
		req := postForm(url.Values{}, token)
		req.Header.Set(CSRFHeaderName, token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	h := RecoveryMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mw("a"), mw("b"), mw("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("order = %v, want a,b,c", order)
	}
}

func TestStandardChain_PanicIsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	counter := requestsTotal.WithLabelValues(http.MethodGet, "/create", "500")
	before := testutil.ToFloat64(counter)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Standard(log, false)...)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/create", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("500 counted %v times, want 1", got)
	}

	var completed map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v (%s)", err, line)
		}
		if entry["msg"] == "request completed" {
			completed = entry
		}
	}
	if completed == nil {
		t.Fatalf("no request completed entry: %s", buf.String())
	}
	if completed["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("logged status = %v, want 500", completed["status"])
	}
}

func TestStandardChain_CSRF(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	for _, tt := range []struct {
		csrf   bool
		status int
	}{
		{csrf: false, status: http.StatusOK},
		{csrf: true, status: http.StatusForbidden},
	} {
		rec := httptest.NewRecorder()
		Chain(okHandler(), Standard(log, tt.csrf)...).ServeHTTP(rec, postForm(url.Values{"title": {"x"}}, ""))
		if rec.Code != tt.status {
			t.Errorf("csrf=%v: status = %d, want %d", tt.csrf, rec.Code, tt.status)
		}
	}
}
