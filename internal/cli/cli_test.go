package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gamexhub/gamex-panel/internal/config"
)

func withConfig(t *testing.T, cfg *config.Config, err error) {
	t.Helper()
	prev := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, err }
	t.Cleanup(func() { loadConfig = prev })
}

func execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"blacklist", "gc"}, {"images", "reconcile"}, {"healthcheck"}} {
		found, _, err := cmd.Find(path)
		if err != nil || found.Name() != path[len(path)-1] {
			t.Fatalf("expected command %v, got %v (%v)", path, found, err)
		}
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DBDriverSQLite, DatabaseURL: "file:" + filepath.Join(t.TempDir(), "gamex.db"), DBMaxOpenConns: 1, DBMaxIdleConns: 1}
	withConfig(t, cfg, nil)
	out, err := execute("migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "migrations applied") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigErrorPropagates(t *testing.T) {
	withConfig(t, nil, errors.New("validate config: JWT_SECRET must be at least 32 bytes"))
	if _, err := execute("migrate"); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestHealthcheck(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "ready", status: http.StatusOK, body: `{"status":"ready","checks":[{"name":"db","healthy":true}]}`},
		{name: "unready", status: http.StatusServiceUnavailable, body: `{"message":"dependencies are not ready","checks":[{"name":"db","healthy":false,"error":"down"}]}`, wantErr: true},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health/ready" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			out, err := execute("healthcheck", "--base-url", srv.URL)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v (out=%q)", tc.wantErr, err, out)
			}
			if !tc.wantErr && !strings.Contains(out, "db: ok") {
				t.Fatalf("expected check listing, got %q", out)
			}
		})
	}
}
