package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/greencart/backend/internal/actor"
	"github.com/greencart/backend/internal/tokens"
)

const actorKey = "actor"

type Auth struct {
	JWTSecret []byte
}

// RequireAuth resolves the bearer token into a tagged actor and stores it on
// the request context. Everything downstream trusts this identity.
func (a *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := tokens.AccessClaimsFromToken(token, a.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		var userID uint
		if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		var act actor.Actor
		switch claims.Role {
		case string(actor.KindProducer):
			act = actor.Producer(userID, claims.ProducerID)
		case string(actor.KindStaff):
			act = actor.Staff(userID)
		default:
			act = actor.Consumer(userID)
		}

		c.Set(actorKey, act)
		return next(c)
	}
}

// RequireKind gates a route group to the given actor kinds. Must run after
// RequireAuth.
func (a *Auth) RequireKind(kinds ...actor.Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			act, ok := ActorFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			for _, k := range kinds {
				if act.Kind == k {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
	}
}

func ActorFromContext(c echo.Context) (actor.Actor, bool) {
	act, ok := c.Get(actorKey).(actor.Actor)
	return act, ok
}
