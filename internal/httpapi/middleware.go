package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const actorIDContextKey contextKey = "actorID"

const sessionCookie = "session"

// sessionAuth resolves the caller's identity from a bearer header or the
// session cookie. Why a token failed is never revealed; every failure is
// the same 401.
func (rt *Router) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw := bearerToken(req)
		if raw == "" {
			if c, err := req.Cookie(sessionCookie); err == nil {
				raw = c.Value
			}
		}
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing session token"})
			return
		}
		claims, err := rt.tokens.Verify(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		actorID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || actorID == 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		ctx := context.WithValue(req.Context(), actorIDContextKey, actorID)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func bearerToken(req *http.Request) string {
	authz := req.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}

func getActorID(ctx context.Context) int64 {
	if v, ok := ctx.Value(actorIDContextKey).(int64); ok {
		return v
	}
	return 0
}
