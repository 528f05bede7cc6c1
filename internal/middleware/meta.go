package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	cacheHitMetaKey  = "cache_hit"
	cacheHeader      = "X-Cache"
	elapsedMetaField = "processing_time_ms"
)

// WithResponseMeta stamps the request start so handlers can report elapsed time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records one envelope meta field for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	metaFor(c)[key] = value
}

// SetCacheHit marks the response as served from cache, in meta and in the X-Cache header.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitMetaKey, hit)
	if hit {
		c.Header(cacheHeader, "HIT")
	} else {
		c.Header(cacheHeader, "MISS")
	}
}

// ResponseMeta returns a copy of the collected meta with processing_time_ms filled in.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	out := make(map[string]interface{})
	if c == nil {
		return out
	}
	for k, v := range metaFor(c) {
		out[k] = v
	}
	if _, set := out[elapsedMetaField]; !set {
		if start, ok := c.Get(requestStartKey); ok {
			if t, ok := start.(time.Time); ok {
				out[elapsedMetaField] = time.Since(t).Milliseconds()
			}
		}
	}
	return out
}

func metaFor(c *gin.Context) map[string]interface{} {
	if raw, ok := c.Get(responseMetaKey); ok {
		if meta, ok := raw.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
