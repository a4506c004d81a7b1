package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/logging"
	"github.com/facturaIA/invoice-ai-service/internal/models"
	"github.com/facturaIA/invoice-ai-service/internal/respond"
)

type contextKey string

const userContextKey contextKey = "user"

// JWTMiddleware requires a valid bearer token whose user still exists
func JWTMiddleware(tokens *TokenManager, users db.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respond.Fail(w, http.StatusUnauthorized, "No token provided")
				return
			}
			tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if tokenString == "" {
				respond.Fail(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			userID, err := tokens.ValidateToken(tokenString)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				respond.Fail(w, http.StatusUnauthorized, "Unauthorized: invalid or expired token")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if errors.Is(err, db.ErrNotFound) {
				respond.Fail(w, http.StatusUnauthorized, "User not found")
				return
			}
			if err != nil {
				logger.Error("load user for token", zap.String("user_id", userID.String()), zap.Error(err))
				respond.Fail(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			logging.SetUserID(r.Context(), user.ID.String())
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}

// WithUser returns ctx carrying user, as JWTMiddleware does
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
