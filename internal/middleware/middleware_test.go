package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123")

func TestSignAndParse(t *testing.T) {
	a := NewAuthenticator(testSecret, time.Hour)
	tok, err := a.Sign("u1", "admin", "a@b.c")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.UID != "u1" || c.Role != "admin" || c.Email != "a@b.c" {
		t.Fatalf("claims = %+v", c)
	}
	other := NewAuthenticator([]byte("another-secret-value"), time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Fatalf("token accepted with the wrong secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	a := NewAuthenticator(testSecret, time.Minute)
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	tok, _ := a.Sign("u1", "admin", "")
	a.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := a.Parse(tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestWithAuthAndRequireAuth(t *testing.T) {
	a := NewAuthenticator(testSecret, time.Hour)
	var seen string
	h := a.WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := ClaimsFromContext(r.Context())
		seen = c.UID
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}

	tok, _ := a.Sign("u7", "user", "")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "u7" {
		t.Fatalf("status = %d uid = %q", rec.Code, seen)
	}
}

func TestRequireAuthLocalizesBody(t *testing.T) {
	h := LocaleMiddleware(RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	for lang, want := range map[string]string{
		"pl": "Wymagane uwierzytelnienie",
		"en": "Authentication required",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surveys?lang="+lang, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", lang, rec.Code)
		}
		var body struct{ Error, Code string }
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", lang, err)
		}
		if body.Error != want || body.Code != "unauthenticated" {
			t.Fatalf("%s: body = %+v", lang, body)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS("https://app.example")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/surveys", nil))
	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("preflight status = %d, next called = %v", rec.Code, called)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("origin = %q", got)
	}
}

func TestLocaleMiddleware(t *testing.T) {
	var got string
	h := LocaleMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Language", "pl-PL,pl;q=0.9,en;q=0.5")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "pl" {
		t.Fatalf("locale = %q, want pl", got)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health?lang=xx", nil))
	if got != "en" {
		t.Fatalf("fallback locale = %q, want en", got)
	}
}

func TestNoStoreOnlyForAPI(t *testing.T) {
	h := NoStore(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surveys", nil))
	if rec.Header().Get("Cache-Control") == "" {
		t.Fatalf("api response missing Cache-Control")
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	if rec.Header().Get("Cache-Control") != "" {
		t.Fatalf("static asset got no-store")
	}
}

type observation struct {
	route, method string
	status        int
}

type fakeObserver struct{ seen []observation }

func (f *fakeObserver) ObserveRequest(route, method string, status int, _ time.Duration) {
	f.seen = append(f.seen, observation{route, method, status})
}

func TestInstrumentAndRequestLog(t *testing.T) {
	obs := &fakeObserver{}
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	inner := Instrument(obs, "GET /api/things/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h := WithRequestLogging(inner, log)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/things/1", nil))

	if len(obs.seen) != 1 || obs.seen[0] != (observation{"GET /api/things/{id}", http.MethodGet, http.StatusTeapot}) {
		t.Fatalf("observations = %+v", obs.seen)
	}
	line := buf.String()
	if !strings.Contains(line, `"route":"GET /api/things/{id}"`) || !strings.Contains(line, `"status":418`) {
		t.Fatalf("log line = %s", line)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("remote = %q", got)
	}
	req.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ClientIP(req); got != "10.0.0.2" {
		t.Fatalf("x-real-ip = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.3")
	if got := ClientIP(req); got != "203.0.113.5" {
		t.Fatalf("xff = %q", got)
	}
}
