package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/hireconnect/hireconnect-backend-go/internal/handler/http/response"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/session"
)

// BearerRequired rejects requests without an "Authorization: Bearer" token
// and puts the caller's session into the request context. The token itself is
// verified by the backend it is relayed to.
func BearerRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token := jwtauth.TokenFromHeader(r)
		if token == "" {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		ctx := session.IntoContext(r.Context(), session.New(token))
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hfn)
}
