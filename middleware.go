package openlearnhub

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "uid"

// UserID returns the verified user identifier the auth guard attached
// to the request context.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok
}

// ExtractBearerToken reads the bearer token from the Authorization
// header, or returns "" when the header is missing or not a bearer.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth gates a handler behind token verification. Requests with
// a missing or invalid token are rejected with 401 and never reach the
// downstream handler; otherwise the verified uid is attached to the
// request context.
func (ts *TokenService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r)
		if token == "" {
			JSONError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		uid, err := ts.Verify(token)
		if err != nil {
			JSONError(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// JSONError writes an error response in the {"error": ...} shape used
// across the API.
func JSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
