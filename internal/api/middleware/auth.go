package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/luocfprime/labtasker/internal/model"
)

// Authenticator resolves queue_name (or queue_id)/password credentials
// to a Queue,
// backed by internal/store.Store.Authenticate.
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) (*model.Queue, error)
}

// BasicAuth returns a middleware that resolves HTTP Basic credentials
// (queue_name:password or queue_id:password) to a Queue and stashes it on the request
// context (§6.1). Missing or bad credentials are rejected with 401
// before the handler runs.
func BasicAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}
			queue, err := auth.Authenticate(r.Context(), name, password)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithQueue(r.Context(), queue)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="labtasker"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(http.StatusUnauthorized),
		"message": "invalid or missing credentials",
	})
}
