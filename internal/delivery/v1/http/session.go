package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"

	sessionCookieMaxAge = 7 * 24 * time.Hour
)

type sessionCtxKey struct{}

// SessionMiddleware достаёт ID сессии из заголовка или cookie. Если ID нет или он
// не похож на UUID, выдаётся новый. ID всегда возвращается клиенту в обоих местах.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sessionFromRequest(r)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(SessionHeader, id)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(sessionCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, id)))
	})
}

// SessionID возвращает ID сессии, выставленный SessionMiddleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}

func sessionFromRequest(r *http.Request) string {
	if id, ok := parseSessionID(r.Header.Get(SessionHeader)); ok {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, ok := parseSessionID(c.Value); ok {
			return id
		}
	}
	return ""
}

func parseSessionID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
