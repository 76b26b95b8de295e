package integration

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

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gamexhub/gamex-panel/internal/config"
	"github.com/gamexhub/gamex-panel/internal/di"
	"github.com/gamexhub/gamex-panel/internal/mail"
	"github.com/gamexhub/gamex-panel/internal/repository"
)

const resetURLBase = "http://reset.gamex.test/api/reset-password"

type testServer struct {
	URL    string
	Config *config.Config
	DB     *gorm.DB
	Redis  *miniredis.Miniredis
	Mail   *mail.Recorder
	client *http.Client
}

type serverOption func(*config.Config)

func withRedisBlacklist() serverOption {
	return func(cfg *config.Config) { cfg.BlacklistDriver = config.BlacklistDriverRedis }
}

func withAdminRegistrationClosed() serverOption {
	return func(cfg *config.Config) { cfg.AdminRegistrationOpen = false }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := &config.Config{
		DBDriver:                      config.DBDriverSQLite,
		JWTSecret:                     "integration-access-secret-0123456789",
		ResetSecret:                   "integration-reset-secret-9876543210",
		JWTIssuer:                     "gamex",
		JWTAudience:                   "gamex-panel",
		JWTAccessTTL:                  time.Hour,
		ResetTTL:                      15 * time.Minute,
		ResetURLBase:                  resetURLBase,
		BcryptCost:                    4,
		BlacklistDriver:               config.BlacklistDriverSQL,
		BlacklistMaintenanceThreshold: 1000,
		RedisKeyPrefix:                "gamex:test:blacklist",
		CORSAllowedOrigins:            []string{"*"},
		HTTPBodyLimitBytes:            1 << 20,
		AdminRegistrationOpen:         true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.DatabaseURL = "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	cfg.DBMaxOpenConns, cfg.DBMaxIdleConns = 1, 1
	db, err := repository.Open(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = repository.Close(db) })

	ts := &testServer{Config: cfg, DB: db, Mail: &mail.Recorder{}}
	infra := di.Infrastructure{DB: db, Mailer: ts.Mail, Logger: logger}

	if cfg.BlacklistDriver == config.BlacklistDriverRedis {
		ts.Redis = miniredis.RunT(t)
		cfg.RedisAddr = ts.Redis.Addr()
		client := redis.NewClient(&redis.Options{Addr: ts.Redis.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		infra.Redis = client
	}

	h, err := di.InitializeHandler(cfg, infra)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ts.URL = srv.URL
	ts.client = srv.Client()
	return ts
}

type apiResponse struct {
	Status  int
	Header  http.Header
	Body    map[string]any
	RawBody []byte
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := apiResponse{Status: resp.StatusCode, Header: resp.Header, RawBody: raw}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.Body), "body: %s", raw)
	}
	return out
}

func (s *testServer) register(t *testing.T, path, email, username, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, path, "", map[string]string{"email": email, "username": username, "password": password})
	require.Equal(t, http.StatusCreated, resp.Status, "register body: %s", resp.RawBody)
	id, _ := resp.Body["user_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func (s *testServer) login(t *testing.T, path, email, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, path, "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.Status, "login body: %s", resp.RawBody)
	token, _ := resp.Body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) userToken(t *testing.T, email, username string) (string, string) {
	t.Helper()
	id := s.register(t, "/api/register", email, username, "Passw0rd")
	return id, s.login(t, "/api/login", email, "Passw0rd")
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	s.register(t, "/admin/admins/register", "admin@gamex.test", "admin", "Admin123")
	return s.login(t, "/admin/admins/login", "admin@gamex.test", "Admin123")
}

func (s *testServer) superadminToken(t *testing.T) string {
	t.Helper()
	s.register(t, "/superadmin/superadmin", "root@gamex.test", "root", "Root1234")
	return s.login(t, "/superadmin/login", "root@gamex.test", "Root1234")
}

func (s *testServer) resetTokenFromMail(t *testing.T) string {
	t.Helper()
	msg, ok := s.Mail.Last()
	require.True(t, ok, "expected a reset mail")
	idx := strings.Index(msg.Text, resetURLBase+"/")
	require.GreaterOrEqual(t, idx, 0, "mail missing reset link: %q", msg.Text)
	rest := msg.Text[idx+len(resetURLBase)+1:]
	if end := strings.IndexAny(rest, " \r\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
