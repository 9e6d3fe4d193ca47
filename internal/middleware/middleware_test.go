package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/smartmines/internal/config"
)

func testLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.DebugLevel)
	return log, &buf
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), tag("inner"), tag("outer"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestLogging(t *testing.T) {
	log, buf := testLogger()
	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/game?rows=9", nil))

	assert.Contains(t, buf.String(), "status_code=418")
	assert.Contains(t, buf.String(), `uri="/v1/game?rows=9"`)
}

func TestRecover(t *testing.T) {
	log, buf := testLogger()
	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "handler panicked")
}

func TestCors(t *testing.T) {
	h := Cors("https://mines.example")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://mines.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "https://mines.example", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open := Cors()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	w = httptest.NewRecorder()
	open.ServeHTTP(w, r)
	assert.Equal(t, "https://elsewhere.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuth(t *testing.T) {
	log, _ := testLogger()
	session := config.Default().Session
	session.Secret = "0123456789abcdef"
	j, err := session.NewJWT()
	require.NoError(t, err)

	token, err := j.Sign(SessionClaims{
		SessionId: "abc",
		Player:    "ann",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	expired, err := j.Sign(SessionClaims{
		SessionId: "abc",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	require.NoError(t, err)

	var got *SessionClaims
	h := Auth(log, j)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = Claims(r.Context())
	}))

	tests := []struct {
		name    string
		request func() *http.Request
		session string
	}{
		{"header", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			return r
		}, "abc"},
		{"query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		}, "abc"},
		{"none", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/", nil)
		}, ""},
		{"expired", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+expired)
			return r
		}, ""},
		{"wrong scheme", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Basic "+token)
			return r
		}, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got = nil
			h.ServeHTTP(httptest.NewRecorder(), test.request())
			if test.session == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, test.session, got.SessionId)
			assert.Equal(t, "ann", got.Player)
		})
	}
}
