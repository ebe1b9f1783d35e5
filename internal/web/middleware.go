package web

import (
	"net/http"

	"github.com/debemdeboas/the-archive-writer/internal/cache"
	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/routes"
)

func cacheIt(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			if r.Header.Get("If-None-Match") == hash {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)
		}

		next.ServeHTTP(w, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")

		next.ServeHTTP(w, r)
	})
}

// requireSession sends visitors without a login to the login page. Partial
// and API-style requests get a 401 instead of a redirect.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Session != nil && s.Session.IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet && r.Header.Get("HX-Request") == "" && r.URL.Path != routes.SSEPath {
			http.Redirect(w, r, routes.LoginPath, http.StatusSeeOther)
			return
		}
		http.Error(w, config.ErrLoginRequired, http.StatusUnauthorized)
	})
}
