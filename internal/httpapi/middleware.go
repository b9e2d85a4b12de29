package httpapi

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"scribeai/internal/auth"
	"scribeai/internal/logger"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogging attaches a request-scoped logger to the context and writes
// one access log line per request.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		l := logger.WithRequestID(requestID)
		r = r.WithContext(logger.NewContext(r.Context(), l))

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		event := l.Info()
		if status >= http.StatusInternalServerError {
			event = l.Error()
		}
		event.
			Str("component", "http").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// Recover turns a panic into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log := requestLogger(r)
				log.Error().
					Interface("panic", v).
					Bytes("stack", debug.Stack()).
					Msg("Handler panicked")
				writeError(w, http.StatusInternalServerError, msgUnexpected)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SessionResolver maps a token to a session.
type SessionResolver interface {
	Resolve(r *http.Request) *auth.Session
}

// SessionResolverFunc adapts a function to SessionResolver.
type SessionResolverFunc func(r *http.Request) *auth.Session

func (f SessionResolverFunc) Resolve(r *http.Request) *auth.Session { return f(r) }

// ServiceResolver resolves sessions with an auth.Service.
func ServiceResolver(s *auth.Service) SessionResolver {
	return SessionResolverFunc(func(r *http.Request) *auth.Session {
		return s.Resolve(r.Context(), auth.TokenFromRequest(r))
	})
}

// ProtectPages redirects anonymous visitors of /dashboard to /login and
// signed-in visitors of /login to /dashboard. Other paths pass through.
func ProtectPages(sessions SessionResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		onDashboard := path == "/dashboard" || strings.HasPrefix(path, "/dashboard/")
		onLogin := path == "/login" || strings.HasPrefix(path, "/login/")

		if onDashboard || onLogin {
			session := sessions.Resolve(r)
			if onDashboard && !session.Authenticated() {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			if onLogin && session.Authenticated() {
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
