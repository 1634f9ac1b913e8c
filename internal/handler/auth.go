package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bazarlabs/bazar/internal/domain/order"
)

const actorContextKey = "auth.actor"

// Claims is the JWT payload the API trusts: the subject is the user ID and
// Role is one of customer, seller, or staff. Token issuance lives elsewhere.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Authenticator validates bearer tokens on incoming requests.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator verifying HS256 signatures with
// the given secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// ParseToken verifies the token signature and returns the actor it encodes.
func (a *Authenticator) ParseToken(token string) (order.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return order.Actor{}, errors.Wrap(err, "parse token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return order.Actor{}, errors.New("invalid token")
	}

	role := order.Role(claims.Role)
	switch role {
	case order.RoleCustomer, order.RoleSeller, order.RoleStaff:
	default:
		role = order.RoleCustomer
	}
	return order.Actor{UserID: claims.Subject, Role: role}, nil
}

// Require returns a gin middleware that rejects requests without a valid
// Bearer token and stores the authenticated actor in the request context.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		actor, err := a.ParseToken(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// RequireRole returns a gin middleware allowing only actors with the role.
func RequireRole(role order.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).Role != role {
			respondError(c, http.StatusForbidden, "permission denied")
			return
		}
		c.Next()
	}
}

// actorFrom returns the authenticated actor stored by Require. Routes behind
// the auth middleware may assume it is present.
func actorFrom(c *gin.Context) order.Actor {
	v, _ := c.Get(actorContextKey)
	actor, _ := v.(order.Actor)
	return actor
}
