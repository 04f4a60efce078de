package cache

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when no redis client is configured.
var ErrUnavailable = errors.New("cache unavailable")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
