package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeti47/agentbench/core/agents"
	"github.com/yeti47/agentbench/core/ccc/auth"
	"github.com/yeti47/agentbench/core/ccc/clock"
	"github.com/yeti47/agentbench/core/config"
	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/kvstore"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/guard"
	"github.com/yeti47/agentbench/dashboard/sessions"
)

const (
	goodPassword = "Correct-Horse-42"
	tokenValue   = "sk-agent-123"
)

type recordingClipboard struct {
	mu     sync.Mutex
	writes []string
}

func (r *recordingClipboard) WriteAll(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, text)
	return nil
}

type fakeAgentClient struct {
	req   agents.AgentRequest
	token string
}

func (f *fakeAgentClient) Send(ctx context.Context, req agents.AgentRequest, token []byte) (*agents.AgentResponse, error) {
	f.req = req
	f.token = string(token)
	return &agents.AgentResponse{StatusCode: http.StatusOK, Body: `{"ok":true}`}, nil
}

type testDashboard struct {
	t         *testing.T
	router    *gin.Engine
	clock     *clock.Fake
	clipboard *recordingClipboard
	agent     *fakeAgentClient
	cookies   []*http.Cookie
}

func newTestDashboard(t *testing.T) *testDashboard {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	clk := clock.NewFake(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	cipher := encryption.NewEnvelopeCipher(nil, encryption.WithIterations(encryption.MinIterations))
	vault := tokens.NewTokenVault(nil, tokens.NewTokenRepository(kvstore.NewMemoryStore()), cipher)
	unlocked := tokens.NewUnlockedTokens()

	sessionGuard := guard.NewSessionGuard(nil, vault, unlocked, guard.Options{
		Timeout:     cfg.SessionTimeout(),
		Warning:     cfg.SessionWarning(),
		PurgeStored: true,
		Clock:       clk,
	})
	t.Cleanup(sessionGuard.Stop)

	clip := &recordingClipboard{}
	agent := &fakeAgentClient{}

	router := NewRouter(cfg, nil, Dependencies{
		Vault:        vault,
		Unlocked:     unlocked,
		Tracker:      auth.NewMemoryFailureTracker(auth.LockoutSettings{Threshold: 2, TimeWindow: time.Hour}),
		Guard:        sessionGuard,
		Copier:       hygiene.NewClipboardCopier(nil, clip, clk, time.Minute),
		AgentClient:  agent,
		SessionStore: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
	})

	return &testDashboard{t: t, router: router, clock: clk, clipboard: clip, agent: agent}
}

// do sends a JSON request, carrying the session cookie between calls.
func (d *testDashboard) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	d.t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(d.t, err)
	}

	return d.send(method, path, data, map[string]string{"Content-Type": "application/json"}, true)
}

// send issues a request with explicit headers, optionally without the session cookie.
func (d *testDashboard) send(method, path string, body []byte, headers map[string]string, withCookie bool) (*httptest.ResponseRecorder, map[string]any) {
	d.t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	if withCookie {
		for _, cookie := range d.cookies {
			req.AddCookie(cookie)
		}
	}

	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); withCookie && len(cookies) > 0 {
		d.cookies = cookies[len(cookies)-1:]
	}

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func (d *testDashboard) createToken(name string) string {
	d.t.Helper()

	w, body := d.do(http.MethodPost, "/api/tokens", map[string]string{
		"name":             name,
		"endpoint":         "https://agent.example.com/chat",
		"token":            tokenValue,
		"password":         goodPassword,
		"confirm_password": goodPassword,
	})
	require.Equal(d.t, http.StatusCreated, w.Code, w.Body.String())
	return body["id"].(string)
}

func TestHealth(t *testing.T) {
	d := newTestDashboard(t)

	w, body := d.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestPasswordStrength(t *testing.T) {
	d := newTestDashboard(t)

	w, body := d.do(http.MethodPost, "/api/password/strength", map[string]string{"password": "password"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "weak", body["strength"])
	assert.Contains(t, body["feedback"], "avoid common words and patterns")
}

func TestCreateToken_PasswordGate(t *testing.T) {
	d := newTestDashboard(t)

	tests := []struct {
		name     string
		password string
		confirm  string
	}{
		{"too short", "Ab1!", "Ab1!"},
		{"mismatch", goodPassword, goodPassword + "x"},
		{"below minimum strength", "abcdefgh", "abcdefgh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := d.do(http.MethodPost, "/api/tokens", map[string]string{
				"name":             "a",
				"endpoint":         "https://agent.example.com",
				"token":            tokenValue,
				"password":         tt.password,
				"confirm_password": tt.confirm,
			})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, body["error"])
		})
	}

	w, _ := d.do(http.MethodGet, "/api/tokens", nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCreateToken_ConflictAndValidation(t *testing.T) {
	d := newTestDashboard(t)
	d.createToken("prod")

	w, _ := d.do(http.MethodPost, "/api/tokens", map[string]string{
		"name": "prod", "endpoint": "https://agent.example.com", "token": "x",
		"password": goodPassword, "confirm_password": goodPassword,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = d.do(http.MethodPost, "/api/tokens", map[string]string{
		"name": "other", "endpoint": "not a url", "token": "x",
		"password": goodPassword, "confirm_password": goodPassword,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnlock_WrongPasswordAndLockout(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("a")

	w, body := d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect password or corrupted data", body["error"])

	w, _ = d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": "still-wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Threshold reached: even the right password is refused for now
	w, _ = d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": goodPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = d.do(http.MethodPost, "/api/tokens/unknown/unlock", map[string]string{"password": goodPassword})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnlockedSessionFlow(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("staging")

	// Nothing unlocked yet
	w, _ := d.do(http.MethodPost, "/api/agent/send", map[string]string{"token_id": id, "body": "{}"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": goodPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := d.do(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, guard.StateActive, body["state"])
	assert.Equal(t, float64(30), body["minutes_until_timeout"])

	w, _ = d.do(http.MethodGet, "/api/tokens", nil)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, true, listed[0]["unlocked"])
	assert.NotContains(t, w.Body.String(), "ciphertext")

	w, _ = d.do(http.MethodPost, "/api/agent/send", map[string]string{"token_id": id, "body": `{"message":"hi"}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, tokenValue, d.agent.token)
	assert.Equal(t, "https://agent.example.com/chat", d.agent.req.Endpoint)
	assert.Equal(t, `{"message":"hi"}`, d.agent.req.Body)

	w, body = d.do(http.MethodPost, "/api/tokens/"+id+"/copy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(60), body["clears_in_seconds"])
	assert.Equal(t, []string{tokenValue}, d.clipboard.writes)

	d.clock.Advance(time.Minute)
	assert.Equal(t, []string{tokenValue, ""}, d.clipboard.writes)

	w, _ = d.do(http.MethodPost, "/api/lock", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = d.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, guard.StateLocked, body["state"])

	w, _ = d.do(http.MethodPost, "/api/agent/send", map[string]string{"token_id": id})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActivityAndTimeout(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("a")

	w, _ := d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": goodPassword})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = d.do(http.MethodPost, "/api/activity", map[string]string{"event": "mousemove"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	d.clock.Advance(26 * time.Minute)
	_, body := d.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, guard.StateWarned, body["state"])
	assert.Equal(t, float64(5), body["warning_minutes"])

	w, body = d.do(http.MethodPost, "/api/activity", map[string]string{"event": "keydown"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["accepted"])

	_, body = d.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, guard.StateActive, body["state"])

	d.clock.Advance(30 * time.Minute)

	_, body = d.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, guard.StateExpired, body["state"])

	w, body = d.do(http.MethodPost, "/api/agent/send", map[string]string{"token_id": id})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, guard.StateExpired, body["state"])

	w, _ = d.do(http.MethodGet, "/api/tokens", nil)
	assert.JSONEq(t, "[]", w.Body.String(), "stored tokens are purged on timeout")
}

func TestChangePasswordAndDelete(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("a")
	newPassword := "Battery-Staple-77"

	w, _ := d.do(http.MethodPost, "/api/tokens/"+id+"/password", map[string]string{
		"old_password": "nope", "new_password": newPassword, "confirm_password": newPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = d.do(http.MethodPost, "/api/tokens/"+id+"/password", map[string]string{
		"old_password": goodPassword, "new_password": newPassword, "confirm_password": newPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": newPassword})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = d.do(http.MethodDelete, "/api/tokens/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = d.do(http.MethodPost, "/api/tokens/"+id+"/copy", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCrossOriginRequestsCannotKeepSessionAlive(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("a")

	w, _ := d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": goodPassword})
	require.Equal(t, http.StatusOK, w.Code)

	foreign := map[string]string{"Content-Type": "text/plain", "Origin": "https://evil.example"}
	for i := 0; i < 4; i++ {
		w, body := d.send(http.MethodPost, "/api/activity", []byte(`{"event":"keydown"}`), foreign, false)
		assert.NotEqual(t, http.StatusOK, w.Code)
		assert.Nil(t, body["accepted"])
		d.clock.Advance(20 * time.Minute)
	}

	_, body := d.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, guard.StateExpired, body["state"])
}

func TestActivityRequiresUnlockedSession(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("a")

	w, _ := d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": goodPassword})
	require.Equal(t, http.StatusOK, w.Code)

	jsonOnly := map[string]string{"Content-Type": "application/json"}
	w, _ = d.send(http.MethodPost, "/api/activity", []byte(`{"event":"keydown"}`), jsonOnly, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := d.send(http.MethodPost, "/api/activity", []byte(`{"event":"keydown"}`), jsonOnly, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["accepted"])
}

func TestMutatingRequestsRequireSameOriginJSON(t *testing.T) {
	d := newTestDashboard(t)
	id := d.createToken("a")
	wrong := []byte(`{"password":"wrong-password"}`)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"text/plain", map[string]string{"Content-Type": "text/plain"}, http.StatusUnsupportedMediaType},
		{"form", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, http.StatusUnsupportedMediaType},
		{"foreign origin", map[string]string{"Content-Type": "application/json", "Origin": "https://evil.example"}, http.StatusForbidden},
		{"cross-site fetch", map[string]string{"Content-Type": "application/json", "Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := d.send(http.MethodPost, "/api/tokens/"+id+"/unlock", wrong, tt.headers, false)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	// None of the rejected attempts counted toward the lockout (threshold 2)
	w, _ := d.do(http.MethodPost, "/api/tokens/"+id+"/unlock", map[string]string{"password": goodPassword})
	assert.Equal(t, http.StatusOK, w.Code)

	sameOrigin := map[string]string{"Content-Type": "application/json; charset=utf-8", "Origin": "http://example.com"}
	w, _ = d.send(http.MethodPost, "/api/lock", nil, sameOrigin, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = d.send(http.MethodGet, "/api/tokens", nil, map[string]string{"Origin": "https://evil.example"}, false)
	assert.Equal(t, http.StatusOK, w.Code, "reads are not gated")
}
