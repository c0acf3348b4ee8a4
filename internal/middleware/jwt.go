package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleDriver = "driver"
	RoleRider  = "user"
	RoleAdmin  = "admin"

	principalKey = "principal"
)

// Claims is the access token payload: sub is the user (or driver) ID.
type Claims struct {
	OrganizationID string `json:"organizationId"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the verified caller stored in the gin context.
type Principal struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           string
}

// JWTAuth validates HS256 access tokens issued elsewhere.
type JWTAuth struct {
	secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret)}
}

// GenerateToken signs a token for local development and tests. Issuing tokens to real users
// is not this service's job.
func (a *JWTAuth) GenerateToken(userID, orgID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OrganizationID: orgID.String(),
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken parses the token and resolves it into a Principal.
func (a *JWTAuth) ValidateToken(tokenStr string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid sub claim: %w", err)
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid organizationId claim: %w", err)
	}
	if claims.Role == "" {
		return Principal{}, errors.New("missing role claim")
	}

	return Principal{UserID: userID, OrganizationID: orgID, Role: claims.Role}, nil
}

// ExtractToken looks for a token in the Authorization header, then the token query
// parameter, then the accessToken cookie.
func ExtractToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):]), true
	}
	if q := r.URL.Query().Get("token"); q != "" {
		return q, true
	}
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// RequireAuth ensures a valid JWT is present
func (a *JWTAuth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := ExtractToken(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		principal, err := a.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID)
		c.Set("role", principal.Role)
		c.Next()
	}
}

// RequireRole ensures the JWT is valid and the caller has one of the roles
func (a *JWTAuth) RequireRole(roles ...string) gin.HandlerFunc {
	auth := a.RequireAuth()
	return func(c *gin.Context) {
		auth(c)
		if c.IsAborted() {
			return
		}

		principal, _ := CurrentPrincipal(c)
		for _, r := range roles {
			if principal.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// CurrentPrincipal returns the caller set by RequireAuth.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
