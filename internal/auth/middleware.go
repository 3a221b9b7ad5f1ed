package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Authenticator guards the API: a request carrying the API key header is
// validated against the key store, anything else must present a Bearer token.
type Authenticator struct {
	keys       *APIKeyStore
	users      *Service
	headerName string
}

func NewAuthenticator(keys *APIKeyStore, users *Service, headerName string) *Authenticator {
	return &Authenticator{keys: keys, users: users, headerName: headerName}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(a.headerName); key != "" {
			ak, err := a.keys.Lookup(r.Context(), key)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := r.Context()
			if ak.UserID != nil {
				if user, err := a.users.GetUserByID(ctx, *ak.UserID); err == nil {
					ctx = WithUser(ctx, user)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := a.users.ParseToken(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid user ID in token")
			return
		}

		user, err := a.users.GetUserByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
