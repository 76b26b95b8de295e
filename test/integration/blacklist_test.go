package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/service"
)

func TestRevokedTokenSurvivesBlacklistPurge(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.userToken(t, "a@x.com", "alice")

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/logout", token, nil).Status)

	gc := service.NewGormTokenBlacklist(repository.NewBlacklistRepository(srv.DB), 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	removed, err := gc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	resp := srv.do(t, http.MethodGet, "/api/protected", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestRedisBlacklistRevokesTokens(t *testing.T) {
	srv := newTestServer(t, withRedisBlacklist())
	_, token := srv.userToken(t, "a@x.com", "alice")

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/protected", token, nil).Status)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/logout", token, nil).Status)

	keys := srv.Redis.Keys()
	require.Len(t, keys, 1)
	assert.Positive(t, srv.Redis.TTL(keys[0]))

	resp := srv.do(t, http.MethodGet, "/api/protected", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestTamperedTokenIsForbidden(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.userToken(t, "a@x.com", "alice")

	resp := srv.do(t, http.MethodGet, "/api/protected", token+"x", nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	missing := srv.do(t, http.MethodGet, "/api/protected", "", nil)
	assert.Equal(t, http.StatusUnauthorized, missing.Status)
}
