package redis

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc     *redis.Client
	logger *slog.Logger
}

// hSetIfExistsScript sets field/value pairs on KEYS[1] only if the hash exists.
var hSetIfExistsScript = redis.NewScript(`
	local key = KEYS[1]
	if redis.call('EXISTS', key) == 0 then
		return 0
	end
	for i = 1, #ARGV, 2 do
		redis.call('HSET', key, ARGV[i], ARGV[i + 1])
	end
	return 1
`)

func NewRepo(rc *redis.Client, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		logger: logger,
	}
}
