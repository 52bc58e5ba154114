package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/timecard-api/internal/models"
)

// Context keys set by Auth
const (
	ctxUserID = "userID"
	ctxEmail  = "userEmail"
	ctxRole   = "userRole"
)

var (
	errMissingToken = errors.New("Authorization header is required")
	errBadHeader    = errors.New("Invalid authorization header format")
	errExpiredToken = errors.New("token has expired")
	errInvalidToken = errors.New("invalid token")
)

// Claims are issued by the identity service. Role is one of the models.Role* values.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the caller in the context.
// Export links may pass the token as ?token= instead of the header.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err != nil {
			unauthorized(c, err)
			return
		}

		claims, err := validateToken(raw, jwtSecret)
		if err != nil {
			unauthorized(c, err)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errBadHeader
	}
	return strings.TrimSpace(token), nil
}

func unauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":     err.Error(),
		"code":      "unauthorized",
		"retryable": false,
	})
}

// validateToken accepts HMAC-signed tokens naming a known user and role
func validateToken(raw, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errExpiredToken
		}
		return nil, errInvalidToken
	}
	if claims.UserID == 0 || !knownRole(claims.Role) {
		return nil, errInvalidToken
	}
	return claims, nil
}

func knownRole(role string) bool {
	switch role {
	case models.RoleUser, models.RoleApprover, models.RoleAdmin:
		return true
	}
	return false
}

// GetUserID returns the authenticated user id, or 0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetUserRole returns the authenticated user's role, or ""
func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// GetActor builds the actor of the current request from the token claims
func GetActor(c *gin.Context) models.Actor {
	return models.Actor{ID: GetUserID(c), Role: GetUserRole(c)}
}

// RequireRole aborts with 403 unless the caller has one of the roles
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "No tienes acceso a esta sección",
			"code":      "forbidden",
			"retryable": false,
		})
	}
}

// RequireApprover limits a route to approvers and admins
func RequireApprover() gin.HandlerFunc {
	return RequireRole(models.RoleApprover, models.RoleAdmin)
}

// GenerateToken signs a token for the given user. Tokens are normally issued
// by the identity service; this is used by tooling and tests.
func GenerateToken(secret string, userID uint, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
