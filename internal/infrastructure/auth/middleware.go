package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type Identity struct {
	UserID  int64
	IsAdmin bool
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func AuthMiddleware(redisClient redis.RedisClient, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, pkgerrors.ErrUnauthorized, "authorization header missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, pkgerrors.ErrUnauthorized, "invalid authorization header")
				return
			}

			tokenStr := parts[1]
			claims, err := ParseToken([]byte(jwtSecret), tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err, "invalid token")
				return
			}

			storedToken, err := redisClient.Get(r.Context(), TokenKey(claims.UserID))
			if err != nil || storedToken != tokenStr {
				slog.Warn("invalid or revoked token", "user_id", claims.UserID, "error", err)
				writeError(w, http.StatusUnauthorized, pkgerrors.ErrInvalidToken, "invalid or revoked token")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, pkgerrors.ErrUnauthorized, "authentication required")
			return
		}
		if !id.IsAdmin {
			writeError(w, http.StatusForbidden, pkgerrors.ErrAdminOnly, pkgerrors.ErrAdminOnly.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, err error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": pkgerrors.Code(err), "message": message})
}
