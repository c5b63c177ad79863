package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-chat-service/internal/auth"
	"course-chat-service/internal/repositories"
)

// AuthMiddleware verifies the request credential and resolves it to a user
// record placed on the context. The last-active touch is best-effort; a
// failed write never fails the request.
func AuthMiddleware(verifier auth.Verifier, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.TokenFromRequest(c.Request)
		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": auth.FailureReason(err)})
			return
		}

		user, err := users.FindByID(c.Request.Context(), identity.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": "user not found"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)

		if err := users.TouchLastActive(c.Request.Context(), user.ID); err != nil {
			log.Printf("last-active update failed for user %d: %v", user.ID, err)
		}

		c.Next()
	}
}
