package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/rating-ladder/internal/progress"
	"github.com/terra-clan/rating-ladder/internal/storage"
)

const (
	// ClientIDHeader carries the client identity on API requests
	ClientIDHeader = "X-Client-ID"

	// ClientCookie carries the client identity for browsers
	ClientCookie = "ladder_client"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

type contextKey string

const (
	clientIDContextKey     contextKey = "client_id"
	issuedCookieContextKey contextKey = "issued_cookie"
)

// ClientIDFromContext extracts the client id from context
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDContextKey).(string)
	return id
}

// ContextWithClientID adds the client id to context
func ContextWithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, id)
}

// issuedCookie returns the identity cookie assigned on this request, if any
func issuedCookie(ctx context.Context) *http.Cookie {
	c, _ := ctx.Value(issuedCookieContextKey).(*http.Cookie)
	return c
}

// identityHeader is the identity part of the response headers. A hijacked
// connection never sees what was set on the ResponseWriter, so the websocket
// handshake passes this to Upgrade.
func identityHeader(ctx context.Context) http.Header {
	h := http.Header{}
	if id := ClientIDFromContext(ctx); id != "" {
		h.Set(ClientIDHeader, id)
	}
	if c := issuedCookie(ctx); c != nil {
		h.Add("Set-Cookie", c.String())
	}
	return h
}

// identify resolves the client from the X-Client-ID header or the
// ladder_client cookie, and assigns a new id when neither holds a valid one.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := extractClientID(r)
		if id == "" {
			id = uuid.NewString()
			cookie := &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			}
			http.SetCookie(w, cookie)
			ctx = context.WithValue(ctx, issuedCookieContextKey, cookie)
			slog.Debug("assigned client id", "client_id", id, "remote_addr", r.RemoteAddr)
		}

		w.Header().Set(ClientIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ContextWithClientID(ctx, id)))
	})
}

// extractClientID returns a well-formed id from the request, or ""
func extractClientID(r *http.Request) string {
	if id := r.Header.Get(ClientIDHeader); id != "" {
		if parsed, err := uuid.Parse(id); err == nil {
			return parsed.String()
		}
		slog.Warn("ignoring malformed client id", "client_id", id)
	}

	if c, err := r.Cookie(ClientCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			return parsed.String()
		}
	}

	return ""
}

// clientStorage returns the storage namespace of the request's client
func (s *Server) clientStorage(ctx context.Context) storage.Storage {
	return storage.NewNamespaced(s.storage, ClientIDFromContext(ctx))
}

// progressStore returns the progress store of the request's client
func (s *Server) progressStore(ctx context.Context) *progress.Store {
	return progress.NewStore(s.clientStorage(ctx))
}
