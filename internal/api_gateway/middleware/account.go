package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AccountIDHeader carries the authenticated account, set by the upstream auth proxy
	AccountIDHeader = "X-Account-ID"

	// AccountIDKey is the key used to store the caller's account ID in the context
	AccountIDKey = "account_id"
)

// AccountID rejects requests without a valid account header with 401
func AccountID() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, err := uuid.Parse(c.GetHeader(AccountIDHeader))
		if err != nil || accountID == uuid.Nil {
			response := gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing or invalid " + AccountIDHeader + " header",
				},
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				response["correlation_id"] = correlationID
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response)
			return
		}

		c.Set(AccountIDKey, accountID)
		c.Next()
	}
}

// GetAccountID returns the caller's account and false when AccountID did not run
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(AccountIDKey); exists {
		if accountID, ok := v.(uuid.UUID); ok {
			return accountID, true
		}
	}
	return uuid.Nil, false
}
