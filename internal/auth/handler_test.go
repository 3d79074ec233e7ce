package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-crm/meridian/testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	handler := NewHandler(nil, f.service)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestHandlerRegister(t *testing.T) {
	srv, _ := newTestServer(t)

	res := postJSON(t, srv.URL+"/register", `{"email":"ada@example.com","password":"s3cret-password","full_name":"Ada"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var body struct {
		ID         int64  `json:"id"`
		Email      string `json:"email"`
		IsVerified bool   `json:"is_verified"`
		Role       string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ada@example.com", body.Email)
	assert.False(t, body.IsVerified)
	assert.Equal(t, "user", body.Role)

	// Case variants of the same address conflict.
	res = postJSON(t, srv.URL+"/register", `{"email":"ADA@example.com","password":"s3cret-password"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestHandlerRegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	res := postJSON(t, srv.URL+"/register", `{"email":"not-an-email","password":"s3cret-password"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res = postJSON(t, srv.URL+"/register", `{"email":"ada@example.com","password":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res = postJSON(t, srv.URL+"/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHandlerLoginStatusCodes(t *testing.T) {
	srv, f := newTestServer(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "ada@example.com", "s3cret-password", "")
	require.NoError(t, err)

	res := postJSON(t, srv.URL+"/login", `{"email":"ada@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Bearer", res.Header.Get("WWW-Authenticate"))

	res = postJSON(t, srv.URL+"/login", `{"email":"ada@example.com","password":"s3cret-password"}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	require.NoError(t, f.service.VerifyEmail(ctx, f.notifier.lastToken))

	res = postJSON(t, srv.URL+"/login", `{"email":"ada@example.com","password":"s3cret-password"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "bearer", body.TokenType)
	assert.NotEmpty(t, body.AccessToken)
}

func TestHandlerVerifyBadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/verify?token=garbage")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(srv.URL + "/verify")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHandlerPasswordResetAccepted(t *testing.T) {
	srv, f := newTestServer(t)

	// Unknown addresses get the same accepted response as known ones.
	res := postJSON(t, srv.URL+"/request-password-reset", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Empty(t, f.notifier.resets)

	_, err := f.service.Register(context.Background(), "ada@example.com", "s3cret-password", "")
	require.NoError(t, err)

	res = postJSON(t, srv.URL+"/request-password-reset", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Len(t, f.notifier.resets, 1)
}

func TestHandlerResetPasswordSpentToken(t *testing.T) {
	srv, f := newTestServer(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "ada@example.com", "s3cret-password", "")
	require.NoError(t, err)
	require.NoError(t, f.service.RequestPasswordReset(ctx, "ada@example.com"))
	token := f.notifier.lastToken

	res := postJSON(t, srv.URL+"/reset-password", `{"token":"`+token+`","new_password":"new-password1"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = postJSON(t, srv.URL+"/reset-password", `{"token":"`+token+`","new_password":"other-pass12"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
