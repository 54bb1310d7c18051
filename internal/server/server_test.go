package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxury-leads-backend/internal/cache"
	"luxury-leads-backend/internal/config"
	"luxury-leads-backend/internal/store"
	"luxury-leads-backend/internal/types"
	"luxury-leads-backend/internal/widget"
)

type fakeResponder struct {
	mu    sync.Mutex
	reply string
	err   error
	block bool
	calls []store.Agency
}

func (f *fakeResponder) Reply(ctx context.Context, agency store.Agency, message string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, agency)
	block, reply, err := f.block, f.reply, f.err
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return reply + ": " + message, nil
}

func testConfig() config.Config {
	return config.Config{
		AllowedOrigin:  "*",
		PublicBaseURL:  "https://leads.example.com",
		AgencyCacheTTL: time.Minute,
		ChatTimeout:    time.Second,
	}
}

type harness struct {
	srv       *Server
	store     *store.MemoryStore
	responder *fakeResponder
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	st := store.NewMemoryStore(0)
	resp := &fakeResponder{reply: "Welcome"}
	srv, err := New(cfg, st, cache.NewMemory(cfg.AgencyCacheTTL), resp)
	require.NoError(t, err)
	return &harness{srv: srv, store: st, responder: resp}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (h *harness) createAgency(t *testing.T, name, prompt, assistant string) int64 {
	t.Helper()
	id, err := h.store.CreateAgency(context.Background(), store.Agency{Name: name, Prompt: prompt, AssistantName: assistant})
	require.NoError(t, err)
	return id
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e types.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e.Error
}

func TestHomeAndHealth(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Luxury Leads AI SaaS is Running", rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	h.srv.checks = []func(context.Context) error{func(context.Context) error { return errors.New("db down") }}
	rec = h.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateAgency(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(t, http.MethodPost, "/create-agency", `{"name":"Maison Luxe","prompt":"You sell villas.","assistant":"Ava"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created types.CreateAgencyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.EqualValues(t, 1, created.AgencyID)

	agency, err := h.store.GetAgency(context.Background(), created.AgencyID)
	require.NoError(t, err)
	assert.Equal(t, "Ava", agency.AssistantName)

	for _, body := range []string{`{"name":"Only name"}`, `{"prompt":"Only prompt"}`, `{"name":"  ","prompt":"p"}`} {
		rec = h.do(t, http.MethodPost, "/create-agency", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Missing name or prompt", decodeError(t, rec))
	}

	rec = h.do(t, http.MethodPost, "/create-agency", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgencyInfo(t *testing.T) {
	h := newHarness(t, testConfig())
	id := h.createAgency(t, "Maison Luxe", "You sell villas.", "Ava")
	plain := h.createAgency(t, "Riviera Homes", "You sell flats.", "")

	rec := h.do(t, http.MethodGet, "/agency/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Maison Luxe","assistant":"Ava"}`, rec.Body.String())
	assert.EqualValues(t, 1, id)

	rec = h.do(t, http.MethodGet, "/agency/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Riviera Homes"}`, rec.Body.String())
	assert.EqualValues(t, 2, plain)

	for _, path := range []string{"/agency/99", "/agency/abc", "/agency/0"} {
		rec = h.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Invalid agency ID", decodeError(t, rec))
	}
}

func TestChat(t *testing.T) {
	h := newHarness(t, testConfig())
	h.createAgency(t, "Maison Luxe", "You sell villas.", "")

	rec := h.do(t, http.MethodPost, "/chat", `{"message":"Any sea view?","agency_id":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"Welcome: Any sea view?"}`, rec.Body.String())

	// numeric ids are accepted too
	rec = h.do(t, http.MethodPost, "/chat", `{"message":"Hi","agency_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	h.responder.mu.Lock()
	require.Len(t, h.responder.calls, 2)
	assert.Equal(t, "You sell villas.", h.responder.calls[0].Prompt)
	h.responder.mu.Unlock()

	leads, err := h.store.ListLeads(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestChatValidation(t *testing.T) {
	h := newHarness(t, testConfig())
	h.createAgency(t, "Maison Luxe", "You sell villas.", "")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty message", `{"message":"  ","agency_id":"1"}`, "message is required"},
		{"missing agency", `{"message":"hi"}`, "Invalid agency ID"},
		{"null agency", `{"message":"hi","agency_id":null}`, "Invalid agency ID"},
		{"unknown agency", `{"message":"hi","agency_id":"42"}`, "Invalid agency ID"},
		{"non-numeric agency", `{"message":"hi","agency_id":"abc"}`, "Invalid agency ID"},
		{"malformed body", `{"message":`, "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
		})
	}
	h.responder.mu.Lock()
	assert.Empty(t, h.responder.calls)
	h.responder.mu.Unlock()
}

func TestChatCapturesLeads(t *testing.T) {
	h := newHarness(t, testConfig())
	h.createAgency(t, "Maison Luxe", "You sell villas.", "")

	h.do(t, http.MethodPost, "/chat", `{"message":"Write to anna@example.com please","agency_id":"1"}`)
	h.do(t, http.MethodPost, "/chat", `{"message":"Call me on +33 612 345 678","agency_id":"1"}`)
	h.do(t, http.MethodPost, "/chat", `{"message":"Just browsing","agency_id":"1"}`)

	rec := h.do(t, http.MethodGet, "/leads/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"email":"anna@example.com","phone":null,"message":"Write to anna@example.com please"},
		{"email":null,"phone":"+33 612 345 678","message":"Call me on +33 612 345 678"}
	]`, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/leads/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/leads/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatAssistantFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.createAgency(t, "Maison Luxe", "You sell villas.", "")
	h.responder.err = errors.New("upstream 500")

	rec := h.do(t, http.MethodPost, "/chat", `{"message":"mail me at bob@example.org","agency_id":"1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "assistant unavailable", decodeError(t, rec))

	// the lead survives the failed reply
	leads, err := h.store.ListLeads(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "bob@example.org", leads[0].Email)
}

func TestChatTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ChatTimeout = 20 * time.Millisecond
	h := newHarness(t, cfg)
	h.createAgency(t, "Maison Luxe", "You sell villas.", "")
	h.responder.block = true

	rec := h.do(t, http.MethodPost, "/chat", `{"message":"hello","agency_id":"1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChatRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.ChatRatePerMinute = 2
	h := newHarness(t, cfg)
	h.createAgency(t, "Maison Luxe", "You sell villas.", "")

	for i := 0; i < 2; i++ {
		rec := h.do(t, http.MethodPost, "/chat", `{"message":"hello","agency_id":"1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := h.do(t, http.MethodPost, "/chat", `{"message":"hello","agency_id":"1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decodeError(t, rec))

	// other endpoints are not limited
	rec = h.do(t, http.MethodGet, "/agency/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWidgetScript(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(t, http.MethodGet, "/widget.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"baseUrl":"https://leads.example.com"`)
	assert.Contains(t, rec.Body.String(), `"showSenderNames":true`)

	rec = h.do(t, http.MethodGet, "/widget.js?variant=inline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"layout":"inline"`)

	rec = h.do(t, http.MethodGet, "/widget.js?variant=neon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://agency.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWidgetAgainstServer(t *testing.T) {
	h := newHarness(t, testConfig())
	h.createAgency(t, "Maison Luxe", "You sell villas.", "Ava")
	ts := httptest.NewServer(h.srv.Router())
	t.Cleanup(ts.Close)

	opts := widget.Preset(widget.VariantNamed, "1")
	opts.BaseURL = ts.URL
	w := widget.New(opts)
	assert.Equal(t, widget.AgencyInfo{AgencyName: "Maison Luxe", AssistantName: "Ava"}, w.Init(context.Background()))

	w.Submit("Reach me at ava.fan@example.com")
	w.Submit("Thanks")
	w.Wait()

	transcript := w.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, "Welcome: Reach me at ava.fan@example.com", transcript[2].Text)
	assert.Equal(t, "Welcome: Thanks", transcript[3].Text)

	unknown := widget.Preset(widget.VariantInline, "404")
	unknown.BaseURL = ts.URL
	u := widget.New(unknown)
	assert.Equal(t, "AI Assistant", u.Init(context.Background()).AgencyName)
	u.Submit("hello")
	u.Wait()
	last := u.Transcript()[1]
	assert.Equal(t, "Server error", last.Text)
	assert.True(t, last.Failed)
}

func TestNewServerWithSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "sqlite://" + filepath.Join(t.TempDir(), "leads.db")
	cfg.OpenAIAPIKey = "test"
	cfg.Model = "gpt-4o-mini"

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/create-agency",
		strings.NewReader(`{"name":"Maison Luxe","prompt":"You sell villas."}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"agency_id":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agency/1", nil))
	assert.JSONEq(t, `{"name":"Maison Luxe"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPLimiter(t *testing.T) {
	assert.Nil(t, newIPLimiter(0))
	var disabled *ipLimiter
	assert.True(t, disabled.allow("1.2.3.4"))

	l := newIPLimiter(1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"))

	now = now.Add(visitorIdleTTL + time.Minute)
	assert.True(t, l.allow("9.9.9.9"))
	l.mu.Lock()
	assert.Len(t, l.visitors, 1)
	l.mu.Unlock()
}
