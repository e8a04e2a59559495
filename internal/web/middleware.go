package web

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

const authRealm = `Basic realm="astra", charset="UTF-8"`

// BasicAuth middleware checks HTTP basic credentials against a bcrypt hash.
func BasicAuth(user, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", authRealm)
				writeError(w, http.StatusUnauthorized, "missing credentials")
				return
			}
			userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			// Both checks always run.
			passOK := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) == nil
			if !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", authRealm)
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger middleware logs each request with its status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("%s %s %d %dB %s [%s]", r.Method, r.URL.Path, status, ww.BytesWritten(),
			time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
	})
}

// writeError writes a minimal plain-text error response.
func writeError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}
