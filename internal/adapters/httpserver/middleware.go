package httpserver

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Middleware func(http.Handler) http.Handler

// Chain aplica los middlewares de modo que el último queda más afuera.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for _, m := range mws {
		h = m(h)
	}
	return h
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	principalKey
)

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		ev := log.Info()
		if rec.status >= 500 {
			ev = log.Error()
		} else if rec.status >= 400 {
			ev = log.Warn()
		}
		rid := requestIDFrom(r.Context())
		if rid == "" {
			// RequestID corre adentro y deja el id sólo en la respuesta.
			rid = rec.Header().Get("X-Request-ID")
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("request_id", rid).
			Msg("http")
	})
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Error().Interface("panic", v).Bytes("stack", debug.Stack()).Str("path", r.URL.Path).Msg("panic")
				fail(w, http.StatusInternalServerError, "internal", "error interno")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// clientIP usa X-Forwarded-For sólo detrás de un proxy de confianza.
func clientIP(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit corta por IP. Si el limiter falla se deja pasar el request.
func RateLimit(l Limiter, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry, err := l.Allow(r.Context(), clientIP(r, trustProxy))
			if err != nil {
				log.Warn().Err(err).Msg("rate limit")
			} else if !ok {
				if retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				}
				fail(w, http.StatusTooManyRequests, "rate_limited", "demasiadas solicitudes")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
