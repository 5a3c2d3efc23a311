package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	// Given only the required variables
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GRPC_PORT", "9090")
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	t.Setenv("JWT_SECRET", "secret")

	// When the environment is unmarshalled
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)

	// Then the optional settings take their defaults
	req.NoError(err)
	req.Equal("0.0.0.0", cfg.Host)
	req.Equal(4000, cfg.MaxContentLength)
	req.Equal(10*time.Minute, cfg.RoomIdleTimeout)
	req.Equal("spacechat:", cfg.RedisChannelPrefix)
	req.Empty(cfg.RedisAddr)

	options := cfg.RuntimeOptions()
	req.Equal(cfg.SessionBufferSize, options.SessionBufferSize)
	req.Equal(500*time.Millisecond, options.SinkTimeout)
	req.Equal(int64(65536), cfg.WebSocket().MaxFrameSize)
}

func TestConfig_Missing_Secret(t *testing.T) {
	req := require.New(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GRPC_PORT", "9090")
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	t.Setenv("JWT_SECRET", "")
	req.NoError(os.Unsetenv("JWT_SECRET"))

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	req.Error(err)
}
