package middleware

import (
	"net/http"
	"strings"

	"shoptill/internal/apierror"
	"shoptill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID     string  `json:"user_id"`
	Username   string  `json:"username"`
	Role       string  `json:"role"`
	RegisterID *string `json:"register_id"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token invalid or expired"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetSession builds the operator session from the token claims. Terminal
// operations require a register binding; users without one (back office
// accounts) are rejected here, before any service logic runs.
func GetSession(c *gin.Context) (service.Session, bool) {
	claims := GetClaims(c)
	if claims == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return service.Session{}, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("malformed token"))
		return service.Session{}, false
	}
	if claims.RegisterID == nil {
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("no register assigned to this user"))
		return service.Session{}, false
	}
	registerID, err := uuid.Parse(*claims.RegisterID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("malformed token"))
		return service.Session{}, false
	}
	return service.Session{
		UserID:     userID,
		Username:   claims.Username,
		Role:       claims.Role,
		RegisterID: registerID,
	}, true
}
