package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// Claims carries the caller's identity. Subject is the user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

// Auth verifies an HS256 bearer token and stores the caller on the context.
func Auth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header missing or invalid")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			// jwt v3 treats a missing exp as never expiring
			if claims.ExpiresAt == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no expiry")
			}
			if claims.Subject == "" || !claims.Role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "token lacks subject or role")
			}

			c.Set(actorKey, models.Actor{UserID: claims.Subject, Role: claims.Role})
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated caller set by Auth.
func ActorFrom(c echo.Context) (models.Actor, bool) {
	actor, ok := c.Get(actorKey).(models.Actor)
	return actor, ok
}

// WithActor is used by tests and internal callers that already know the identity.
func WithActor(c echo.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

// NewToken signs an identity token. The server only verifies tokens; this exists
// for local tooling and tests.
func NewToken(secret []byte, actor models.Actor, claims jwt.StandardClaims) (string, error) {
	claims.Subject = actor.UserID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: actor.Role, StandardClaims: claims})
	return token.SignedString(secret)
}
