package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	svc := NewJWT([]byte("secret"))
	other := NewJWT([]byte("other"))

	valid, err := svc.GenerateToken("user-1", "Officer", time.Hour)
	require.NoError(t, err)
	expired, err := svc.GenerateToken("user-1", "Officer", -time.Hour)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("user-1", "Admin", time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "Admin"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := []struct {
		name    string
		token   string
		want    Identity
		wantErr bool
	}{
		{"valid", valid, Identity{UserID: "user-1", Role: "Officer"}, false},
		{"expired", expired, Identity{}, true},
		{"wrong key", foreign, Identity{}, true},
		{"no subject", noSub, Identity{}, true},
		{"garbage", "not-a-token", Identity{}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := svc.Identify(c.token)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func newRouter(svc *JWTService, p rbac.Permission) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", JWTMiddleware(svc), RequirePermission(p), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"user": id.UserID})
	})
	return r
}

func TestRequirePermission(t *testing.T) {
	svc := NewJWT([]byte("secret"))
	router := newRouter(svc, rbac.RatesUpdate)

	token := func(role string) string {
		tok, err := svc.GenerateToken("user-1", role, time.Hour)
		require.NoError(t, err)
		return tok
	}

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", "", http.StatusUnauthorized},
		{"officer lacks permission", "Bearer " + token("Officer"), "", http.StatusForbidden},
		{"manager allowed", "Bearer " + token("Manager"), "", http.StatusOK},
		{"admin allowed", "bearer " + token("admin"), "", http.StatusOK},
		{"unknown role", "Bearer " + token("Janitor"), "", http.StatusForbidden},
		{"query token", "", token("Manager"), http.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			url := "/guarded"
			if c.query != "" {
				url += "?token=" + c.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, c.want, w.Code)
		})
	}
}

func TestAuthenticator(t *testing.T) {
	ctx := context.Background()
	jwtSvc := NewJWT([]byte("secret"))
	a := NewAuthenticator(repository.NewMemoryStore(), jwtSvc, time.Hour)

	created, err := a.EnsureUser(ctx, " Admin ", "s3cret!", rbac.Admin)
	require.NoError(t, err)
	assert.Equal(t, "admin", created.Username)
	assert.NotEqual(t, "s3cret!", created.PasswordHash)

	again, err := a.EnsureUser(ctx, "ADMIN", "different", rbac.Admin)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	tok, u, err := a.Login(ctx, "ADMIN", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	id, err := jwtSvc.Identify(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: created.ID.String(), Role: "Admin"}, id)

	_, _, err = a.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = a.Login(ctx, "nobody", "s3cret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.EnsureUser(ctx, "x", "pw", rbac.Role("Janitor"))
	assert.Error(t, err)
	_, err = a.EnsureUser(ctx, "", "pw", rbac.Officer)
	assert.Error(t, err)
}
