package auth

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/google/uuid"
)

// contextKey is the echo context key the middleware stores claims under.
const contextKey = "user"

// Middleware returns an echo middleware that authenticates bearer tokens
// and rejects revoked ones. Verified claims are stored on the request
// context for CallerID / TokenClaims.
func Middleware(jwtSvc *JWTService, revocations RevocationStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  contextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			claims, err := jwtSvc.Verify(tokenString)
			if err != nil {
				return nil, err
			}
			if revoked, _ := revocations.IsRevoked(c.Request().Context(), claims.ID); revoked {
				return nil, errors.New("token has been revoked")
			}
			return claims, nil
		},
	})
}

// TokenClaims returns the verified claims stored by Middleware.
func TokenClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(contextKey).(*Claims)
	return claims, ok
}

// CallerID extracts the authenticated caller's user id from the request
// context. Returns uuid.Nil and false outside an authenticated route.
func CallerID(c echo.Context) (uuid.UUID, bool) {
	claims, ok := TokenClaims(c)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
