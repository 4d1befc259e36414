package middleware

import (
	"net/http"

	"github.com/atandjijero/Saas/pkg/correlationid"
)

// CorrelationID propagates the caller's correlation id, or generates one, and
// echoes it on the response so clients can reference it in reports.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.Header)
			if id == "" {
				id = correlationid.Generate()
			}

			ctx := correlationid.NewContext(r.Context(), id)
			w.Header().Set(correlationid.Header, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
