package internal

import (
	"space-chat/infrastructure/ws"
	"space-chat/runtime"
	"time"
)

// Config is read from the environment with go-env, optionally seeded by a .env file.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	HTTPPort int    `env:"HTTP_PORT,required=true"`
	GRPCPort int    `env:"GRPC_PORT,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LimitMessages  int    `env:"LIMIT_MESSAGES,default=500"`

	MaxContentLength    int           `env:"MAX_CONTENT_LENGTH,default=4000"`
	HistoryPageSize     int           `env:"HISTORY_PAGE_SIZE,default=50"`
	RoomIdleTimeout     time.Duration `env:"ROOM_IDLE_TIMEOUT,default=10m"`
	SessionBufferSize   int           `env:"SESSION_BUFFER_SIZE,default=256"`
	SinkTimeout         time.Duration `env:"SINK_TIMEOUT,default=500ms"`
	BufferSize          int           `env:"BUFFER_SIZE,default=1024"`
	RecentNotifications int           `env:"RECENT_NOTIFICATIONS,default=20"`

	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	DebugPort            int           `env:"DEBUG_PORT"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=1h"`

	RedisAddr          string `env:"REDIS_ADDR"`
	RedisChannelPrefix string `env:"REDIS_CHANNEL_PREFIX,default=spacechat:"`

	PongWait     time.Duration `env:"PONG_WAIT,default=60s"`
	WriteWait    time.Duration `env:"WRITE_WAIT,default=10s"`
	MaxFrameSize int64         `env:"MAX_FRAME_SIZE,default=65536"`
}

func (c Config) RuntimeOptions() runtime.Options {
	return runtime.Options{
		MaxContentLength:    c.MaxContentLength,
		HistoryPageSize:     c.HistoryPageSize,
		RoomIdleTimeout:     c.RoomIdleTimeout,
		SessionBufferSize:   c.SessionBufferSize,
		SinkTimeout:         c.SinkTimeout,
		BufferSize:          c.BufferSize,
		RecentNotifications: c.RecentNotifications,
	}
}

func (c Config) WebSocket() ws.Config {
	return ws.Config{
		PongWait:     c.PongWait,
		WriteWait:    c.WriteWait,
		MaxFrameSize: c.MaxFrameSize,
	}
}
