package middleware

import (
	"net/http"
	"strconv"

	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/request"
	"go.uber.org/zap"
)

// UserContext resolves the caller identity from the X-User-ID header set by
// the messaging gateway, upserts the user row, and attaches the user to the
// request context. When requireApproval is set, users that have not been
// approved by an operator get a 403.
func UserContext(users database.UserRepositoryInterface, requireApproval bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get("X-User-ID")
			if rawID == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing X-User-ID header", logger)
				return
			}

			userID, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil || userID <= 0 {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid X-User-ID header", logger)
				return
			}

			user := &models.User{
				ID:       userID,
				Username: r.Header.Get("X-Username"),
			}
			if err := users.Upsert(r.Context(), user); err != nil {
				logger.Error("user_upsert_failed",
					zap.Int64("user_id", userID),
					zap.Error(err),
				)
				respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to resolve user", logger)
				return
			}

			if requireApproval && !user.Approved {
				respondErrorJSON(w, r, http.StatusForbidden, "Forbidden", "User is not approved", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	}
}
