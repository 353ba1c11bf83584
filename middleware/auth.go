package middleware

import (
	"net/http"
	"strings"
	"time"

	psychRepo "groundandgrow/database/repository/psychologist"
	"groundandgrow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextPsychologistID is the gin context key carrying the
	// authenticated psychologist's id.
	ContextPsychologistID = "psychologistID"

	authCacheTTL = 30 * time.Minute
)

// PsychologistAuth authenticates the Bearer token, verifies its hash against
// the stored token hash so sign-out revokes it, and caches the verdict in
// Redis with a sliding TTL.
func PsychologistAuth(repo psychRepo.PsychologistRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if _, err := utils.ValidateToken(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		id, err := utils.ExtractIDFromToken(token)
		if err != nil || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		tokenHash := utils.HashToken(token)
		cacheKey := "auth:psych:" + id

		cache := utils.GetAuthCacheClient()
		if cached, err := cache.Get(c.Request.Context(), cacheKey).Result(); err == nil && cached == tokenHash {
			cache.Expire(c.Request.Context(), cacheKey, authCacheTTL)
			c.Set(ContextPsychologistID, id)
			c.Next()
			return
		}

		psych, err := repo.GetByID(c.Request.Context(), id)
		if err != nil || !psych.Active || psych.TokenHash == "" || psych.TokenHash != tokenHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session revoked or expired"})
			return
		}

		if err := cache.Set(c.Request.Context(), cacheKey, tokenHash, authCacheTTL).Err(); err != nil {
			utils.GetLogger().Warn("failed to cache auth verdict", zap.Error(err))
		}

		c.Set(ContextPsychologistID, id)
		c.Next()
	}
}
