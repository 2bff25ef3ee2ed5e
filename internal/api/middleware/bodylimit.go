package middleware

import "net/http"

// DefaultMaxBody caps JSON request bodies.
const DefaultMaxBody = 1 << 20

// MaxBodySize limits request bodies to maxBytes. Decoding a larger body fails
// with *http.MaxBytesError.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
