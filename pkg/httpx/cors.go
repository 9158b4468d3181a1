package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// CORS allows browser clients served from allowedOrigins to call the API with
// bearer credentials. "*" allows any origin. Preflight requests are answered
// here and never reach the handler.
func CORS(allowedOrigins []string, extraHeaders ...string) Middleware {
	anyOrigin := slices.Contains(allowedOrigins, "*")
	allowHeaders := strings.Join(append([]string{"Authorization", "Content-Type", "X-Request-ID"}, extraHeaders...), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !(anyOrigin || slices.Contains(allowedOrigins, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
