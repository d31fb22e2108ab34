package middleware

import "github.com/gin-gonic/gin"

const (
	cacheHeader = "X-Cache"
	cacheHitKey = "cache_hit"
)

// SetCacheHit marks a cached read with X-Cache: HIT or MISS.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	c.Set(cacheHitKey, hit)
	if hit {
		c.Header(cacheHeader, "HIT")
		return
	}
	c.Header(cacheHeader, "MISS")
}

// CacheHit reports what SetCacheHit recorded for the request.
func CacheHit(c *gin.Context) (hit, known bool) {
	value, exists := c.Get(cacheHitKey)
	if !exists {
		return false, false
	}
	hit, known = value.(bool)
	return hit, known
}
