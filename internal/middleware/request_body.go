package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// LimitRequestBody rejects bodies declared larger than maxBytes and caps the
// rest while the handler reads them. Whatever the handler left unread is
// drained, still capped, and the body is closed so the connection can be
// reused.
func LimitRequestBody(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				log.Debugf("request body of %d bytes to [%s] rejected", r.ContentLength, r.URL.Path)
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			body := http.MaxBytesReader(w, r.Body, maxBytes)
			r.Body = body
			next.ServeHTTP(w, r)
			_, _ = io.Copy(io.Discard, body)
			_ = body.Close()
		})
	}
}
