package redis

import (
	"fmt"

	"github.com/mcoot/moonfall/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "moonfall"

// gameKey returns the Redis key for a game aggregate
func gameKey(code model.GameCode) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, code)
}

// eventIndexKey returns the Redis key for the ZSET of event sequence numbers
func eventIndexKey(code model.GameCode) string {
	return fmt.Sprintf("%s:idx:events:%s", keyPrefix, code)
}

// eventDataKey returns the Redis key for the HASH of seq -> event JSON
func eventDataKey(code model.GameCode) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, code)
}
