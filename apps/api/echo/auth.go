package echoapi

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
)

const (
	contextTokenKey   = "profileToken"
	contextProfileKey = "profile"
	contextHooksKey   = "hooks"
)

// Claims represents the authorization claims of an externally-issued JWT.
// Tokens are minted by the identity provider; the API only validates them.
type Claims struct {
	jwt.StandardClaims
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// GetProfileClaims builds the Claims an identity provider would mint for prof.
// Used by tests and the admin CLI to forge valid tokens.
func GetProfileClaims(conf *core.Config, prof profile.Profile) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   prof.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		FullName: prof.FullName,
		Email:    prof.Email,
		Role:     prof.Role,
	}
}

// GenerateToken signs a JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func newJWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

// profileMiddleware resolves the token subject to a Profile and attaches the
// profile's hook set to the request context. It runs after the JWT middleware.
func profileMiddleware(profiles profile.Repository, hub *Hub) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			prof, err := profiles.GetProfileByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == profile.ErrNotFound {
					return errNoProfile
				}
				return errors.Wrap(err, "finding profile by ID")
			}

			ctx.Set(contextProfileKey, prof)
			ctx.Set(contextHooksKey, hub.HooksFor(prof))
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextProfile(ctx echo.Context) (profile.Profile, error) {
	if prof, ok := ctx.Get(contextProfileKey).(profile.Profile); ok {
		return prof, nil
	}
	return profile.Profile{}, errUnauthorized
}

func getContextHooks(ctx echo.Context) (*Hooks, error) {
	if hooks, ok := ctx.Get(contextHooksKey).(*Hooks); ok {
		return hooks, nil
	}
	return nil, errUnauthorized
}
