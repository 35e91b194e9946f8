package cache

import (
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix   = "profile:%s"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	ProfileTTL = 5 * time.Minute
)

// ProfileKey is the cache key of a profile row.
func ProfileKey(userID string) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// BlacklistKey marks a revoked session token by its jti.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}
