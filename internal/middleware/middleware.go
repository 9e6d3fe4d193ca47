package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

type Middleware func(http.Handler) http.Handler

// Wrap applies mws to h. The last middleware is the outermost one.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range mws {
		h = mw(h)
	}
	return h
}

// Recover turns a panicking handler into a 500 response.
func Recover(log *logrus.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					log.WithFields(logrus.Fields{
						"panic": v,
						"uri":   r.URL.RequestURI(),
						"stack": string(debug.Stack()),
					}).Error("handler panicked")
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
