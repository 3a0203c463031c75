package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/streamoverlay/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 5000,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	storage = configVar[string]{
		envKey:       "SERVER_STORAGE",
		flagKey:      "storage",
		defaultValue: app.StorageRedis,
	}
	databaseDSN = configVar[string]{
		envKey:       "SERVER_DATABASE_DSN",
		flagKey:      "database-dsn",
		defaultValue: "overlays.db",
	}
	streamsDir = configVar[string]{
		envKey:       "SERVER_STREAMS_DIR",
		flagKey:      "streams-dir",
		defaultValue: "./streams",
	}
	apiURL = configVar[string]{
		envKey:       "SERVER_API_URL",
		flagKey:      "api-url",
		defaultValue: "",
	}
	manifestPath = configVar[string]{
		envKey:       "SERVER_MANIFEST_PATH",
		flagKey:      "manifest-path",
		defaultValue: "/streams/index.m3u8",
	}
	pollInterval = configVar[time.Duration]{
		envKey:       "SERVER_POLL_INTERVAL",
		flagKey:      "poll-interval",
		defaultValue: 5 * time.Second,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	redisChannel = configVar[string]{
		envKey:       "REDIS_CHANNEL",
		flagKey:      "redis-channel",
		defaultValue: "overlay-events",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(storage.flagKey, storage.defaultValue, "Overlay storage: redis, sqlite or postgres")
	pflag.String(databaseDSN.flagKey, databaseDSN.defaultValue, "SQLite file or Postgres DSN")
	pflag.String(streamsDir.flagKey, streamsDir.defaultValue, "Directory with the HLS playlist and segments")
	pflag.String(apiURL.flagKey, apiURL.defaultValue, "Overlay API the panel talks to, defaults to this server")
	pflag.String(manifestPath.flagKey, manifestPath.defaultValue, "Stream manifest URL shown in the panel")
	pflag.Duration(pollInterval.flagKey, pollInterval.defaultValue, "Panel overlay poll interval")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(redisChannel.flagKey, redisChannel.defaultValue, "Redis channel for overlay events")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(host)
	bind(port)
	bind(logLevel)
	bind(storage)
	bind(databaseDSN)
	bind(streamsDir)
	bind(apiURL)
	bind(manifestPath)
	bind(pollInterval)
	bind(redisHost)
	bind(redisPort)
	bind(redisPassword)
	bind(redisChannel)

	return &app.AppConfig{
		Host:          viper.GetString(host.flagKey),
		Port:          viper.GetInt(port.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		Storage:       viper.GetString(storage.flagKey),
		DatabaseDSN:   viper.GetString(databaseDSN.flagKey),
		StreamsDir:    viper.GetString(streamsDir.flagKey),
		APIURL:        viper.GetString(apiURL.flagKey),
		ManifestPath:  viper.GetString(manifestPath.flagKey),
		PollInterval:  viper.GetDuration(pollInterval.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
		RedisChannel:  viper.GetString(redisChannel.flagKey),
	}
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(context.Background(), appConfig); err != nil {
		log.Fatal(err)
	}
}
