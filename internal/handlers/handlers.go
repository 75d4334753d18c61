package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/auth"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// now is the clock handed to the core; tests replace it.
var now = time.Now

// writeError maps an error kind to its HTTP status.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		status = http.StatusBadRequest
	case apperr.ErrInvalidState, apperr.ErrConflict:
		status = http.StatusConflict
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrStorage:
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// followUpWarning turns a *service.SideEffectError into a warning string so
// the primary result can still be returned. Other errors pass through.
func followUpWarning(err error) (string, error) {
	var side *service.SideEffectError
	if errors.As(err, &side) {
		return side.Error(), nil
	}
	return "", err
}

func withWarning(body gin.H, warning string) gin.H {
	if warning != "" {
		body["warning"] = warning
	}
	return body
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.UUID{}, false
	}
	return id, true
}

func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
	}
	return id, ok
}

// callerShift returns the caller's open shift id, or nil when the caller is
// not clocked in.
func callerShift(ctx context.Context, svc *service.Service, id auth.Identity) (*uuid.UUID, error) {
	sh, err := svc.Shifts.OpenShift(ctx, id.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sh.ID, nil
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler handles user login and returns a JWT token
func LoginHandler(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r loginReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		tok, user, err := a.Login(c.Request.Context(), r.Username, r.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": tok, "user": user})
	}
}

// PermissionsHandler returns the caller's role and permission set.
func PermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		perms := rbac.PermissionsFor(id.Role)
		if perms == nil {
			perms = []rbac.Permission{}
		}
		role, _ := rbac.ParseRole(id.Role)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     id.UserID,
			"role":        role,
			"permissions": perms,
			"catalog":     rbac.Catalog(),
		})
	}
}

func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperr.Validation("invalid time %q, want RFC3339", s)
	}
	return &t, nil
}
