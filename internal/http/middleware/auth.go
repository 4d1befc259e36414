package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/http/apierr"
)

// Auth resolves the bearer token to an identity and stores it on the request
// context. Requests without a valid token never reach the handlers.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				writeAuthError(w, apierr.New(apperr.MissingTokenErr))
				return
			}

			identity, err := verifier.Verify(tokenString)
			if err != nil {
				writeAuthError(w, apierr.New(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), identity)))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, res apierr.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	//nolint:errcheck
	json.NewEncoder(w).Encode(res)
}
