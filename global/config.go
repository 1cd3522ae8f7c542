package global

import (
	"os"
	"strconv"
	"time"
)

// AppConfig is the process-wide configuration. Defaults suit local
// development; env vars override individual fields at boot.
type AppConfig struct {
	NodeID string // node identity, goes into bridge frames and presence keys
	Port   int    // HTTP/WS listen port

	JWTSecret []byte

	Redis RedisConfig
	Mongo MongoConfig
	Nats  NatsConfig

	WS WSConfig
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// TTL of the per-user online key; refreshed on heartbeat.
	PresenceTTL time.Duration
}

type MongoConfig struct {
	Enabled bool
	URI     string
	DB      string
}

type NatsConfig struct {
	Enabled bool
	Servers []string
}

type WSConfig struct {
	SendQueueSize  int           // per-connection outbound buffer
	FanoutWorkers  int           // fan-out worker pool size
	FanoutQueue    int           // fan-out job queue depth
	WriteDeadline  time.Duration // per-frame write deadline
	PresenceSweep  time.Duration // stale presence reaper interval
	MaxChatLen     int
	MaxCommentLen  int
	NotifyLogLimit int // bounded per-user notification log
}

var Conf = Default()

func Default() AppConfig {
	return AppConfig{
		NodeID:    "collab_1",
		Port:      8080,
		JWTSecret: []byte("dev-only-secret-change-me"),
		Redis: RedisConfig{
			Addr:        "127.0.0.1:6379",
			PresenceTTL: 60 * time.Second,
		},
		Mongo: MongoConfig{
			URI: "mongodb://127.0.0.1:27017",
			DB:  "gridsync",
		},
		Nats: NatsConfig{
			Servers: []string{"nats://127.0.0.1:4222"},
		},
		WS: WSConfig{
			SendQueueSize:  256,
			FanoutWorkers:  4,
			FanoutQueue:    1024,
			WriteDeadline:  5 * time.Second,
			PresenceSweep:  10 * time.Second,
			MaxChatLen:     500,
			MaxCommentLen:  2000,
			NotifyLogLimit: 100,
		},
	}
}

// LoadEnv applies environment overrides onto c.
func LoadEnv(c *AppConfig) {
	if v := os.Getenv("GRIDSYNC_NODE_ID"); v != "" {
		c.NodeID = v
	}
	if v := os.Getenv("GRIDSYNC_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("GRIDSYNC_JWT_SECRET"); v != "" {
		c.JWTSecret = []byte(v)
	}
	if v := os.Getenv("GRIDSYNC_REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
	if v := os.Getenv("GRIDSYNC_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("GRIDSYNC_MONGO_URI"); v != "" {
		c.Mongo.Enabled = true
		c.Mongo.URI = v
	}
	if v := os.Getenv("GRIDSYNC_MONGO_DB"); v != "" {
		c.Mongo.DB = v
	}
	if v := os.Getenv("GRIDSYNC_NATS_SERVERS"); v != "" {
		c.Nats.Enabled = true
		c.Nats.Servers = []string{v}
	}
}

func GetJwtSecret() []byte { return Conf.JWTSecret }
