package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/config"
)

type CtxKey int

const (
	CtxSessionClaims CtxKey = iota
)

// SessionClaims grant access to one game session.
type SessionClaims struct {
	SessionId string `json:"session_id"`
	Player    string `json:"player,omitempty"`
	jwt.RegisteredClaims
}

// bearerToken reads the token from the Authorization header, or from the
// token query parameter for clients that cannot set headers (websockets).
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, found := strings.CutPrefix(auth, "Bearer ")
		if found {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Auth attaches valid session claims to the request context. Requests
// without a valid token pass through without claims.
func Auth(log *logrus.Logger, j *config.JWT) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims := &SessionClaims{}
			if _, err := j.ParseWithClaims(token, claims); err != nil {
				log.WithError(err).Debug("rejected session token")
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxSessionClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims returns the session claims attached by [Auth].
func Claims(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(CtxSessionClaims).(*SessionClaims)
	return claims, ok
}
