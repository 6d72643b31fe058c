package middleware

import (
	"context"
	"net/http"
	"strings"

	"stayhub/internal/data/repository"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

// Authenticate requires a valid bearer token whose user still exists.
func Authenticate(tokens *utils.TokenIssuer, users repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			ctx, ok := authorize(w, r, authHeader, tokens, users, logger)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the caller when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func OptionalAuth(tokens *utils.TokenIssuer, users repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, ok := authorize(w, r, authHeader, tokens, users, logger)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authorize(
	w http.ResponseWriter,
	r *http.Request,
	authHeader string,
	tokens *utils.TokenIssuer,
	users repository.UserRepository,
	logger *zap.Logger,
) (context.Context, bool) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
		return nil, false
	}

	claims, err := tokens.Parse(parts[1])
	if err != nil {
		logger.Warn("Invalid or expired token",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		utils.ResponseUnauthorized(w, "Invalid or expired token")
		return nil, false
	}

	userID, err := utils.ParseUUID(claims.Subject)
	if err != nil {
		utils.ResponseUnauthorized(w, "Invalid or expired token")
		return nil, false
	}

	// Tokens outlive deleted accounts
	user, err := users.FindByID(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to load token user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return nil, false
	}
	if user == nil {
		logger.Warn("Token for unknown user", zap.String("user_id", userID.String()))
		utils.ResponseUnauthorized(w, "Invalid or expired token")
		return nil, false
	}

	return utils.SetUserContext(r.Context(), user.ID, string(user.Role), user.Email), true
}
