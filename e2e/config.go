package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config points the suite at a running server. Leaving GRPC_ADDR empty skips the suite.
type Config struct {
	GRPCAddr  string `envconfig:"SPACECHAT_GRPC_ADDR"`
	WSURL     string `envconfig:"SPACECHAT_WS_URL" default:"ws://localhost:8080/ws"`
	JWTSecret string `envconfig:"JWT_SECRET"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
