package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ecomm-dev/accounts/shared/domain"
	"github.com/ecomm-dev/accounts/shared/errors"
	jwt_internal "github.com/ecomm-dev/accounts/shared/jwt"
	"github.com/ecomm-dev/accounts/shared/logger"
	"github.com/ecomm-dev/accounts/shared/utils"
)

// Key to store the identity in the request context
type key int

const IdentityKey key = 0

const authFailed = "Authentication Failed"

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt_internal.JwtService
}

// NewAuth creates a new Auth middleware instance
func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// Authenticate resolves the bearer token into an identity and stores it in
// the request context. Any failure ends the request with CA-1.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.extractIdentity(r)
		if err != nil {
			logger.Log.Debug("authentication failed", "error", err)
			utils.WriteError(w, r, errors.OAuth("CA-1", authFailed))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireUser rejects requests that reach it without an identity.
func (a *Auth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentityFromContext(r) == nil {
			utils.WriteError(w, r, errors.OAuth("CA-2", authFailed))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly lets through identities with the admin flag.
func (a *Auth) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentityFromContext(r)
		if identity == nil {
			utils.WriteError(w, r, errors.OAuth("CA-2", authFailed))
			return
		}
		if !identity.Admin {
			utils.WriteError(w, r, errors.OAuth("CA-3", "You need admin privileges to perform this operation"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NeedAuth is Authenticate followed by RequireUser.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Authenticate(a.RequireUser(next))
	}
}

// NeedAdmin is Authenticate followed by AdminOnly.
func (a *Auth) NeedAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Authenticate(a.AdminOnly(next))
	}
}

// Elevation guards privilege requests: when header is present the request
// must come from an authenticated admin. Requests without the header pass.
func (a *Auth) Elevation(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := a.NeedAdmin()(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RequestsElevation(r, header) {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

// RequestsElevation reports whether the request carries header with a
// non-empty value.
func RequestsElevation(r *http.Request, header string) bool {
	return r.Header.Get(header) != ""
}

func (a *Auth) extractIdentity(r *http.Request) (*domain.Identity, error) {
	tokenString, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return nil, errNoToken
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, errNoToken
	}

	claims, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Id == "" {
		return nil, errInvalidClaims
	}

	identity := claims.Identity()
	return &identity, nil
}

// Sentinel errors for extractIdentity
var (
	errNoToken       = errorString("no bearer token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentityFromContext retrieves the identity from the request context
func GetIdentityFromContext(r *http.Request) *domain.Identity {
	identity, ok := r.Context().Value(IdentityKey).(*domain.Identity)
	if !ok {
		return nil
	}
	return identity
}
