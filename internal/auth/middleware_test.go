package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	snapshots map[int64]Snapshot
}

func (s *stubLoader) Load(ctx context.Context, userID int64) (Snapshot, error) {
	snap, ok := s.snapshots[userID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestGuard(snapshots map[int64]Snapshot) (*Guard, *TokenCodec) {
	codec := newTestCodec()
	return NewGuard(codec, &stubLoader{snapshots: snapshots}, nil), codec
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	guard, _ := newTestGuard(nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res := httptest.NewRecorder()
	guard.Authenticate(okHandler()).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Bearer", res.Header().Get("WWW-Authenticate"))
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	guard, _ := newTestGuard(nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res := httptest.NewRecorder()
	guard.Authenticate(okHandler()).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateInjectsPrincipal(t *testing.T) {
	guard, codec := newTestGuard(map[int64]Snapshot{
		1: {ID: 1, Email: "ada@example.com", IsActive: true, IsVerified: true, Role: RoleUser},
	})

	token, err := codec.Issue(1, PurposeAccess, time.Minute)
	require.NoError(t, err)

	var seen Snapshot
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		seen = p
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	guard.Authenticate(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, int64(1), seen.ID)
	assert.Equal(t, "ada@example.com", seen.Email)
}

func TestAuthenticateRejectsInactiveAccount(t *testing.T) {
	guard, codec := newTestGuard(map[int64]Snapshot{
		1: {ID: 1, IsActive: false, IsVerified: true, Role: RoleUser},
	})

	token, err := codec.Issue(1, PurposeAccess, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	guard.Authenticate(okHandler()).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateRejectsVerificationToken(t *testing.T) {
	guard, codec := newTestGuard(map[int64]Snapshot{
		1: {ID: 1, IsActive: true, Role: RoleUser},
	})

	token, err := codec.Issue(1, PurposeVerify, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	guard.Authenticate(okHandler()).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireVerified(t *testing.T) {
	guard, _ := newTestGuard(nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), Snapshot{ID: 1, IsActive: true}))
	res := httptest.NewRecorder()
	guard.RequireVerified(okHandler()).ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), Snapshot{ID: 1, IsActive: true, IsVerified: true}))
	res = httptest.NewRecorder()
	guard.RequireVerified(okHandler()).ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireRole(t *testing.T) {
	guard, _ := newTestGuard(nil)
	adminOnly := guard.RequireRole(RoleAdmin)

	req := httptest.NewRequest(http.MethodPatch, "/me/avatar", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), Snapshot{ID: 1, IsActive: true, IsVerified: true, Role: RoleUser}))
	res := httptest.NewRecorder()
	adminOnly(okHandler()).ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	req = httptest.NewRequest(http.MethodPatch, "/me/avatar", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), Snapshot{ID: 1, IsActive: true, IsVerified: true, Role: RoleAdmin}))
	res = httptest.NewRecorder()
	adminOnly(okHandler()).ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}
