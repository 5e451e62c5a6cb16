// Package config holds the bot's runtime settings. Defaults are overridden
// by environment variables, and the CLI overrides those with flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/whisper/replybot/internal/router"
)

// Platform names accepted by Config.Platform.
const (
	PlatformSlack   = "slack"
	PlatformGateway = "gateway"
	PlatformNATS    = "nats"
)

// Config holds the settings for one bot process.
type Config struct {
	Platform    string // slack | gateway | nats
	SlackToken  string // xoxb-... for the slack platform
	SlackDebug  bool   // log raw RTM traffic
	GatewayURL  string // ws://host:port/path for the gateway platform
	NATSURL     string // nats://host:4222 for the nats platform
	RedisAddr   string // conversation directory for the nats platform
	BotID       string // bot user id on platforms without a handshake
	BotName     string
	TeamName    string
	RulesFile   string // optional YAML rule table; built-in rules if empty
	MetricsAddr string // prometheus listener; disabled if empty
	SendWorkers int    // max concurrent in-flight sends
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Platform:    PlatformSlack,
		GatewayURL:  "ws://localhost:8080/bot",
		NATSURL:     "nats://localhost:4222",
		RedisAddr:   "localhost:6379",
		BotName:     "replybot",
		MetricsAddr: ":9090",
		SendWorkers: router.DefaultWorkers,
	}
}

// FromEnv returns Default overridden by environment variables.
func FromEnv() Config {
	return apply(Default(), os.Getenv)
}

func apply(c Config, getenv func(string) string) Config {
	if v := getenv("PLATFORM"); v != "" {
		c.Platform = v
	}
	if v := getenv("SLACK_TOKEN"); v != "" {
		c.SlackToken = v
	}
	if v := getenv("SLACK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SlackDebug = b
		}
	}
	if v := getenv("GATEWAY_URL"); v != "" {
		c.GatewayURL = v
	}
	if v := getenv("NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := getenv("BOT_ID"); v != "" {
		c.BotID = v
	}
	if v := getenv("BOT_NAME"); v != "" {
		c.BotName = v
	}
	if v := getenv("TEAM_NAME"); v != "" {
		c.TeamName = v
	}
	if v := getenv("RULES_FILE"); v != "" {
		c.RulesFile = v
	}
	if v := getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := getenv("SEND_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SendWorkers = n
		}
	}
	return c
}

// Validate checks that the settings needed by the selected platform are set.
func (c Config) Validate() error {
	switch c.Platform {
	case PlatformSlack:
		if c.SlackToken == "" {
			return fmt.Errorf("config: SLACK_TOKEN is required for platform %q", c.Platform)
		}
	case PlatformGateway:
		if c.GatewayURL == "" {
			return fmt.Errorf("config: GATEWAY_URL is required for platform %q", c.Platform)
		}
	case PlatformNATS:
		if c.NATSURL == "" || c.RedisAddr == "" {
			return fmt.Errorf("config: NATS_URL and REDIS_ADDR are required for platform %q", c.Platform)
		}
		if c.BotID == "" {
			return fmt.Errorf("config: BOT_ID is required for platform %q", c.Platform)
		}
	default:
		return fmt.Errorf("config: unknown platform %q", c.Platform)
	}
	if c.SendWorkers <= 0 {
		return fmt.Errorf("config: send workers must be positive, got %d", c.SendWorkers)
	}
	return nil
}
