package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const identityKey = "identity"

// Identity is the authenticated caller resolved from a token.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type JWTService struct {
	secret []byte
}

func NewJWT(secret []byte) *JWTService {
	return &JWTService{secret: secret}
}

// JWTMiddleware resolves the bearer token into an Identity. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted
// as well.
func JWTMiddleware(a *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		id, err := a.Identify(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authh := c.GetHeader("Authorization")
	if authh == "" {
		tok := c.Query("token")
		return tok, tok != ""
	}
	parts := strings.Fields(authh)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// IdentityFrom returns the identity set by JWTMiddleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func (j *JWTService) GenerateToken(sub, role string, expires time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  "parking-ops",
		"aud":  "parking-clients",
		"sub":  sub,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(expires).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWTService) ParseToken(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Identify parses tokenStr and extracts the caller. Tokens without a subject
// are rejected; a missing role yields an identity with no permissions.
func (j *JWTService) Identify(tokenStr string) (Identity, error) {
	claims, err := j.ParseToken(tokenStr)
	if err != nil {
		return Identity{}, err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, errors.New("token has no subject")
	}
	role, _ := claims["role"].(string)
	return Identity{UserID: sub, Role: role}, nil
}
