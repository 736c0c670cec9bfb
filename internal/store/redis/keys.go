package redis

import "fmt"

const (
	// KeyPrefix is the prefix shared by every gitmark key
	KeyPrefix = "gitmark:"
	// KeyPrefixCache is the prefix for cached repository lookups
	KeyPrefixCache = KeyPrefix + "cache:repo:"
)

// ProfileKey returns the Redis key for a storage key within a profile
// Example: ProfileKey("default", "users") -> "gitmark:default:users"
func ProfileKey(profile, key string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, profile, key)
}

// CacheKey returns the Redis key for a cached repository lookup.
// Full names are case-insensitive on GitHub, so the key is too.
func CacheKey(fullName string) string {
	return KeyPrefixCache + normalizeFullName(fullName)
}
