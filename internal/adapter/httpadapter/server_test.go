package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/form-assist-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/form-assist-service/internal/adapter/session"
	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

const cookieName = "form_session"

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockLookup struct {
	mu      sync.Mutex
	results map[string]domain.LookupResult
	calls   []string
}

func (m *mockLookup) Lookup(_ context.Context, code string) domain.LookupResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, code)
	if r, ok := m.results[code]; ok {
		return r
	}
	return domain.TransportFailure(errors.New("unexpected code"))
}

// --- helpers ---

type formBody struct {
	Form        domain.FormRecord `json:"form"`
	Theme       string            `json:"theme"`
	ToggleLabel string            `json:"toggle_label"`
	Notice      string            `json:"notice"`
	Missing     []string          `json:"missing"`
}

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	lookup *mockLookup
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error, lookup *mockLookup) *httpadapter.Server {
	return newTestServerWithCookie(readyErr, lookup, false)
}

func newTestServerWithCookie(readyErr error, lookup *mockLookup, secure bool) *httpadapter.Server {
	metrics := observability.NewMetricsForTesting()
	sessions := session.NewManager(clockwork.NewFakeClock(), 30*time.Minute, 100, discardLogger(), metrics)
	forms := httpadapter.NewFormHandler(sessions, lookup, nil, httpadapter.FormConfig{
		CookieName:     cookieName,
		SecureCookie:   secure,
		RequiredFields: []domain.Field{domain.FieldName, domain.FieldEmail, domain.FieldPostalCode},
	}, discardLogger(), metrics)
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, forms, discardLogger())
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	lookup := &mockLookup{results: map[string]domain.LookupResult{
		"01001000": domain.Found(domain.Address{
			Street:   "Praça da Sé",
			District: "Sé",
			City:     "São Paulo",
			Region:   "SP",
		}),
		"99999999": domain.NotFound(),
	}}
	srv := httptest.NewServer(newTestServer(nil, lookup))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testAPI{t: t, srv: srv, client: &http.Client{Jar: jar}, lookup: lookup}
}

func (a *testAPI) do(method, path string, body any) (int, formBody) {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	require.NoError(a.t, err)
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out formBody
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func send(r domain.FormRecord) map[string]any {
	return map[string]any{"form": r}
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, &mockLookup{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, &mockLookup{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"), &mockLookup{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &mockLookup{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- form API ---

func TestLoad_NewSessionIssuesCookie(t *testing.T) {
	srv := newTestServer(nil, &mockLookup{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/form", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
	assert.Zero(t, cookies[0].MaxAge, "session cookie ends with the browser session")

	var body formBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.FormRecord{}, body.Form)
	assert.Equal(t, "light", body.Theme)
	assert.Equal(t, domain.ToggleLabelDark, body.ToggleLabel)
}

func TestSessionCookieSecure(t *testing.T) {
	tests := map[string]struct {
		secure bool
		target string
	}{
		"configured":  {secure: true, target: "/api/form"},
		"tls request": {secure: false, target: "https://forms.example/api/form"},
		"both":        {secure: true, target: "https://forms.example/api/form"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newTestServerWithCookie(nil, &mockLookup{}, tc.secure)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.True(t, cookies[0].Secure)
		})
	}
}

func TestInputPersistsAcrossReload(t *testing.T) {
	api := newTestAPI(t)
	typed := domain.FormRecord{Name: "Ana", Email: "ana@example.com", PostalCode: "0100"}

	status, _ := api.do(http.MethodPut, "/api/form", send(typed))
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(http.MethodGet, "/api/form", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, typed, body.Form)
}

func TestPostalCodeFound(t *testing.T) {
	api := newTestAPI(t)
	typed := domain.FormRecord{Name: "Ana", PostalCode: "01001-000", Street: "stale"}

	status, body := api.do(http.MethodPost, "/api/form/postal-code", send(typed))

	require.Equal(t, http.StatusOK, status)
	want := domain.FormRecord{
		Name:       "Ana",
		PostalCode: "01001-000",
		Street:     "Praça da Sé",
		District:   "Sé",
		City:       "São Paulo",
		Region:     "SP",
	}
	assert.Equal(t, want, body.Form)
	assert.Empty(t, body.Notice)

	_, reloaded := api.do(http.MethodGet, "/api/form", nil)
	assert.Equal(t, want, reloaded.Form)
}

func TestPostalCodeNotFound(t *testing.T) {
	api := newTestAPI(t)
	typed := domain.FormRecord{Name: "Ana", PostalCode: "99999999", City: "Natal"}

	status, body := api.do(http.MethodPost, "/api/form/postal-code", send(typed))

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, domain.NoticeLookupNotFound, body.Notice)
	assert.Equal(t, typed, body.Form)

	_, reloaded := api.do(http.MethodGet, "/api/form", nil)
	assert.Equal(t, domain.FormRecord{}, reloaded.Form, "store unchanged")
}

func TestPostalCodeTransportError(t *testing.T) {
	api := newTestAPI(t)
	typed := domain.FormRecord{PostalCode: "12345678"}

	status, body := api.do(http.MethodPost, "/api/form/postal-code", send(typed))

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, domain.NoticeLookupFailed, body.Notice)
	assert.Equal(t, typed, body.Form)
}

func TestPostalCodeIneligibleSkipsLookup(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/form/postal-code", send(domain.FormRecord{PostalCode: "123"}))

	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Notice)
	assert.Empty(t, api.lookup.calls)
}

func TestSubmitValidationFailure(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/form/submit",
		send(domain.FormRecord{Email: "ana@example.com", PostalCode: "01001000"}))

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, domain.NoticeValidation, body.Notice)
	assert.Equal(t, []string{"name"}, body.Missing)

	_, reloaded := api.do(http.MethodGet, "/api/form", nil)
	assert.Equal(t, domain.FormRecord{}, reloaded.Form)
}

func TestSubmitSaves(t *testing.T) {
	api := newTestAPI(t)
	r := domain.FormRecord{Name: "Ana", Email: "ana@example.com", PostalCode: "01001000"}

	status, body := api.do(http.MethodPost, "/api/form/submit", send(r))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.NoticeSaved, body.Notice)

	_, reloaded := api.do(http.MethodGet, "/api/form", nil)
	assert.Equal(t, r, reloaded.Form)
}

func TestThemeToggleRoundTrip(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/theme/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dark", body.Theme)
	assert.Equal(t, domain.ToggleLabelLight, body.ToggleLabel)

	_, body = api.do(http.MethodGet, "/api/theme", nil)
	assert.Equal(t, "dark", body.Theme)

	_, body = api.do(http.MethodPost, "/api/theme/toggle", map[string]string{"theme": "dark"})
	assert.Equal(t, "light", body.Theme)

	_, body = api.do(http.MethodGet, "/api/form", nil)
	assert.Equal(t, "light", body.Theme)
}

func TestResetClearsSession(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPut, "/api/form", send(domain.FormRecord{Name: "Ana"}))
	api.do(http.MethodPost, "/api/theme/toggle", nil)

	status, body := api.do(http.MethodPost, "/api/form/reset", map[string]any{
		"form":  domain.FormRecord{Name: "Ana"},
		"theme": "dark",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.FormRecord{}, body.Form)
	assert.Equal(t, "dark", body.Theme, "reset leaves the applied theme on the page")

	_, reloaded := api.do(http.MethodGet, "/api/form", nil)
	assert.Equal(t, domain.FormRecord{}, reloaded.Form)
	assert.Equal(t, "light", reloaded.Theme)
}

func TestSessionsAreIsolated(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPut, "/api/form", send(domain.FormRecord{Name: "Ana"}))

	other := &http.Client{}
	resp, err := other.Get(api.srv.URL + "/api/form")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body formBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.FormRecord{}, body.Form)
}

func TestInvalidBodyReturns400(t *testing.T) {
	srv := newTestServer(nil, &mockLookup{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/form", bytes.NewBufferString("not-json{{{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
