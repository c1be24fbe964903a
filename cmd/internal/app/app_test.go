package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/alicebob/miniredis/v2"
)

// setTestEnv configures session signing and cheap PIN hashing.
func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JAPA_PASETO_V4_SECRET_KEY_HEX", paseto.NewV4AsymmetricSecretKey().ExportHex())
	t.Setenv("JAPA_TOKEN_HMAC_KEY", strings.Repeat("h", 32))
	t.Setenv("JAPA_PIN_HASH", "bcrypt")
	t.Setenv("JAPA_PIN_BCRYPT_COST", "4")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func memoryConfig() Config {
	cfg := LoadConfig()
	cfg.DatabaseURL = ""
	cfg.SessionBackend = ""
	cfg.RedisURL = ""
	cfg.ReadinessRequireDB = false
	cfg.RequireTokenHMAC = false
	cfg.ProviderCertsURL = ""
	cfg.CORSAllowedOrigins = []string{"*"}
	cfg.CORSAllowCredentials = false
	return cfg
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	a, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		a.close()
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return res.StatusCode, out
}

// get returns the status, headers and body of a plain GET.
func get(t *testing.T, srv *httptest.Server, path string) (int, http.Header, string) {
	t.Helper()
	res, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return res.StatusCode, res.Header, string(body)
}

func TestApp_MemoryModeEndToEnd(t *testing.T) {
	setTestEnv(t)
	srv := newTestServer(t, memoryConfig())

	code, reg := call(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"phone": "+15550001", "pin": "1234", "display_name": "Radha",
	})
	if code != http.StatusOK {
		t.Fatalf("register: %d %v", code, reg)
	}
	userID, _ := reg["user_id"].(string)

	code, login := call(t, srv, http.MethodPost, "/auth/login", "", map[string]any{"phone": "+15550001", "pin": "1234"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %v", code, login)
	}
	tok, _ := login["token"].(string)

	code, _ = call(t, srv, http.MethodPost, "/auth/login", "", map[string]any{"phone": "+15550001", "pin": "9999"})
	if code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: expected 401, got %d", code)
	}

	today := time.Now().UTC().Format("2006-01-02")
	code, added := call(t, srv, http.MethodPost, "/chanting/add", tok, map[string]any{"rounds": 16})
	if code != http.StatusOK {
		t.Fatalf("add: %d %v", code, added)
	}
	if added["occurred_on"] != today {
		t.Fatalf("occurred_on=%v want=%s", added["occurred_on"], today)
	}
	streak, _ := added["streak"].(map[string]any)
	if streak["current"] != float64(1) {
		t.Fatalf("expected current streak 1, got %v", added["streak"])
	}

	code, sum := call(t, srv, http.MethodGet, "/chanting/summary", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("summary: %d %v", code, sum)
	}
	if sum["total_rounds"] != float64(16) {
		t.Fatalf("total_rounds=%v want=16", sum["total_rounds"])
	}

	code, board := call(t, srv, http.MethodGet, "/chanting/leaderboard", "", nil)
	if code != http.StatusOK {
		t.Fatalf("leaderboard: %d %v", code, board)
	}
	rows, _ := board["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected one leaderboard row, got %v", board["data"])
	}
	row, _ := rows[0].(map[string]any)
	if row["user_id"] != userID || row["total_beads"] != float64(16*108) {
		t.Fatalf("unexpected leaderboard row: %v", row)
	}

	// A second login revokes the first token.
	code, again := call(t, srv, http.MethodPost, "/auth/login", "", map[string]any{"phone": "+15550001", "pin": "1234"})
	if code != http.StatusOK {
		t.Fatalf("second login: %d %v", code, again)
	}
	if code, _ = call(t, srv, http.MethodGet, "/auth/validate-session", tok, nil); code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", code)
	}
	second, _ := again["token"].(string)
	if code, _ = call(t, srv, http.MethodGet, "/auth/validate-session", second, nil); code != http.StatusOK {
		t.Fatalf("current token: expected 200, got %d", code)
	}

	// Provider login is off unless a certs URL is configured.
	code, _ = call(t, srv, http.MethodPost, "/auth/login/provider", "", map[string]any{"id_token": "x"})
	if code != http.StatusNotFound {
		t.Fatalf("provider login: expected 404, got %d", code)
	}
}

func TestApp_HealthReadyMetrics(t *testing.T) {
	setTestEnv(t)
	srv := newTestServer(t, memoryConfig())

	code, hdr, _ := get(t, srv, "/healthz")
	if code != http.StatusOK {
		t.Fatalf("healthz: %d", code)
	}
	if hdr.Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
	if got := hdr.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff header mismatch: %q", got)
	}

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chanting/add", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://mobile.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin mismatch: %q", got)
	}

	if code, _, _ := get(t, srv, "/readyz"); code != http.StatusOK {
		t.Fatalf("readyz: %d", code)
	}

	_, _, body := get(t, srv, "/metrics")
	for _, want := range []string{
		`japa_http_requests_total{code="200",route="/healthz"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %s", want)
		}
	}
}

func TestApp_ReadinessRequiresDB(t *testing.T) {
	setTestEnv(t)
	cfg := memoryConfig()
	cfg.ReadinessRequireDB = true
	srv := newTestServer(t, cfg)

	if code, _, _ := get(t, srv, "/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a database, got %d", code)
	}
}

func TestApp_RedisSessionBackend(t *testing.T) {
	setTestEnv(t)
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.SessionBackend = SessionBackendRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	srv := newTestServer(t, cfg)

	code, _ := call(t, srv, http.MethodPost, "/auth/register", "", map[string]any{"phone": "+15550002", "pin": "4321"})
	if code != http.StatusOK {
		t.Fatalf("register: %d", code)
	}
	code, login := call(t, srv, http.MethodPost, "/auth/login", "", map[string]any{"phone": "+15550002", "pin": "4321"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %v", code, login)
	}

	if keys := mr.Keys(); len(keys) != 1 {
		t.Fatalf("expected one session key in redis, got %v", keys)
	}

	tok, _ := login["token"].(string)
	if code, _ = call(t, srv, http.MethodGet, "/auth/validate-session", tok, nil); code != http.StatusOK {
		t.Fatalf("validate: %d", code)
	}

	if code, _, _ := get(t, srv, "/readyz"); code != http.StatusOK {
		t.Fatalf("readyz with redis up: %d", code)
	}

	mr.Close()
	if code, _, _ := get(t, srv, "/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with redis down: expected 503, got %d", code)
	}
}

func TestNew_ConfigErrors(t *testing.T) {
	setTestEnv(t)

	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{name: "postgres sessions without db", mut: func(c *Config) { c.SessionBackend = SessionBackendPostgres }},
		{name: "redis sessions without url", mut: func(c *Config) { c.SessionBackend = SessionBackendRedis }},
		{name: "unknown backend", mut: func(c *Config) { c.SessionBackend = "etcd" }},
		{name: "bad redis url", mut: func(c *Config) {
			c.SessionBackend = SessionBackendRedis
			c.RedisURL = "mysql://nope"
		}},
	}

	for _, tc := range cases {
		cfg := memoryConfig()
		tc.mut(&cfg)
		if _, err := New(context.Background(), cfg, quietLogger()); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNew_RequiresSigningKey(t *testing.T) {
	setTestEnv(t)
	t.Setenv("JAPA_PASETO_V4_SECRET_KEY_HEX", "")

	if _, err := New(context.Background(), memoryConfig(), quietLogger()); err == nil {
		t.Fatalf("expected error without a signing key")
	}
}
