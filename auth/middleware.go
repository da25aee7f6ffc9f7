package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/user/accounts-go/apperror"
)

// RequireToken is the bearer-token middleware. It extracts the token from
// the Authorization header, verifies it (signature, expiry, denylist),
// resolves the subject to a user row, and stores both the actor and the
// token in the request context for downstream handlers.
//
// Failure responses follow the token error contract:
// 401 {"error":"Token absent"|"Token invalid"|"Token expired"} and
// 404 {"error":"User not found"} when the subject row no longer exists.
func RequireToken(tokens *TokenService, store UserStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)

			claims, err := tokens.Verify(r.Context(), raw)
			if err != nil {
				WriteError(w, r, tokenError(err))
				return
			}

			actor, err := store.ByID(r.Context(), claims.UserID)
			if err != nil {
				if apperror.IsNotFound(err) {
					// Token subject vanished (hard-deleted account).
					writeJSON(w, http.StatusNotFound, apperror.ErrorResponse{Error: "User not found"})
					return
				}
				WriteError(w, r, err)
				return
			}

			ctx := NewContextWithActor(r.Context(), actor)
			ctx = NewContextWithToken(ctx, raw, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls the token out of an "Authorization: Bearer <token>"
// header, returning "" when the header is missing or malformed beyond
// recognition.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// tokenError maps TokenService sentinel errors onto apperror values.
func tokenError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, ErrTokenAbsent):
		return apperror.NewTokenAbsentError(err)
	case errors.Is(err, ErrTokenExpired):
		return apperror.NewTokenExpiredError(err)
	case errors.Is(err, ErrTokenInvalid):
		return apperror.NewTokenInvalidError(err)
	default:
		return apperror.NewInternalError("token verification failed", err)
	}
}
