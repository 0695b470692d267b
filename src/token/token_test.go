package token

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("kimchi"), bcrypt.MinCost)
	require.NoError(t, err)

	users, err := ParseUsers([]string{"eater:" + string(hash)})
	require.NoError(t, err)

	a, err := NewAuthenticator([]byte("secret"), users, nil)
	require.NoError(t, err)
	return a
}

func issue(t *testing.T, a *Authenticator, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.GetToken(rec, httptest.NewRequest(http.MethodPost, "/api/get_token", strings.NewReader(body)))
	return rec
}

func protected(a *Authenticator) http.Handler {
	return a.JwtMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, _ := Username(r.Context())
		_, _ = w.Write([]byte(name))
	}))
}

func TestIssueAndVerify(t *testing.T) {
	require := require.New(t)
	a := newTestAuthenticator(t)

	rec := issue(t, a, `{"username": "eater", "password": "kimchi"}`)
	require.Equal(http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(resp["token"])

	req := httptest.NewRequest(http.MethodGet, "/api/recommend", nil)
	req.Header.Set("Authorization", "Bearer "+resp["token"])
	rec = httptest.NewRecorder()
	protected(a).ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("eater", rec.Body.String())
}

func TestWrongPassword(t *testing.T) {
	a := newTestAuthenticator(t)
	require.Equal(t, http.StatusUnauthorized, issue(t, a, `{"username": "eater", "password": "rice"}`).Code)
	require.Equal(t, http.StatusUnauthorized, issue(t, a, `{"username": "nobody", "password": "kimchi"}`).Code)
	require.Equal(t, http.StatusBadRequest, issue(t, a, `not json`).Code)
}

func TestMiddlewareRejects(t *testing.T) {
	a := newTestAuthenticator(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "eater",
		"exp":      time.Now().Add(-time.Minute).Unix(),
	})
	expiredString, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "eater"})
	otherKeyString, err := otherKey.SignedString([]byte("not-the-secret"))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": "Token abc",
		"garbage":   "Bearer abc.def.ghi",
		"expired":   "Bearer " + expiredString,
		"other key": "Bearer " + otherKeyString,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/recommend", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			protected(a).ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestParseUsers(t *testing.T) {
	users, err := ParseUsers([]string{"a:hash1", " b:hash2 "})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "hash1", "b": "hash2"}, users)

	_, err = ParseUsers([]string{"no-colon"})
	require.ErrorIs(t, err, ErrBadUserEntry)
}

func TestNewAuthenticatorNeedsKey(t *testing.T) {
	_, err := NewAuthenticator(nil, nil, nil)
	require.ErrorIs(t, err, ErrNoSigningKey)
}
