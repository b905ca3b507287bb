package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PlanKey returns the cache key for a plan drawn for a configuration with a seed
func (r *CacheKeyStruct) PlanKey(configurationID string, seed int64) string {
	return fmt.Sprintf("plan:%s:%d", configurationID, seed)
}

// PlanPattern matches every cached plan of a configuration
func (r *CacheKeyStruct) PlanPattern(configurationID string) string {
	return fmt.Sprintf("plan:%s:*", configurationID)
}

// RateLimitKey returns the counter key for a client's plan requests in a window
func (r *CacheKeyStruct) RateLimitKey(clientIP string, window int64) string {
	return fmt.Sprintf("ratelimit:plan:%s:%d", clientIP, window)
}

var CacheKey = NewCacheKeyStruct()
