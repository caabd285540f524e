package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks responses as uncacheable. Session views change on every action.
func NoStore() gin.HandlerFunc {
	return CacheControl("no-store")
}

// CacheControl sets the Cache-Control header for responses.
func CacheControl(directive string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", directive)
		c.Next()
	}
}
