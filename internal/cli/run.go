package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/whisper/replybot/internal/bot"
	"github.com/whisper/replybot/internal/config"
	"github.com/whisper/replybot/internal/directory"
	"github.com/whisper/replybot/internal/gateway"
	"github.com/whisper/replybot/internal/messaging"
	"github.com/whisper/replybot/internal/metrics"
	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/router"
	"github.com/whisper/replybot/internal/rules"
	"github.com/whisper/replybot/internal/slackrtm"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the chat platform and start replying",
		Long: `Connect to the configured platform (slack, gateway or nats) and reply to
messages that mention the bot until interrupted.

Settings come from the environment (PLATFORM, SLACK_TOKEN, GATEWAY_URL,
NATS_URL, REDIS_ADDR, BOT_ID, BOT_NAME, TEAM_NAME, RULES_FILE,
METRICS_ADDR, SEND_WORKERS); flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), rootOpts.Config)
		},
	}

	c := &rootOpts.Config
	cmd.Flags().StringVar(&c.Platform, "platform", c.Platform, "chat platform (slack|gateway|nats)")
	cmd.Flags().StringVar(&c.GatewayURL, "gateway-url", c.GatewayURL, "event gateway websocket URL")
	cmd.Flags().StringVar(&c.NATSURL, "nats-url", c.NATSURL, "NATS server URL")
	cmd.Flags().StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address of the conversation directory")
	cmd.Flags().StringVar(&c.BotID, "bot-id", c.BotID, "bot user id (nats platform)")
	cmd.Flags().StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "metrics listen address (empty disables)")
	cmd.Flags().IntVar(&c.SendWorkers, "workers", c.SendWorkers, "max concurrent in-flight sends")
	cmd.Flags().BoolVar(&c.SlackDebug, "slack-debug", c.SlackDebug, "log raw Slack RTM traffic")

	return cmd
}

func runBot(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := loadTable(cfg.RulesFile)
	if err != nil {
		return err
	}

	client, closeClient, err := newPlatform(cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("replybot starting")
	log.Printf("  platform:     %s", cfg.Platform)
	log.Printf("  rules:        %d (%s)", table.Len(), rulesSource(cfg.RulesFile))
	log.Printf("  send_workers: %d", cfg.SendWorkers)
	log.Printf("  metrics_addr: %s", cfg.MetricsAddr)

	r := router.New(table, rules.NewSelector(nil), client, client, router.WithWorkers(cfg.SendWorkers))
	sub := bot.New(client, r).Start(ctx)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = newMetricsServer(cfg.MetricsAddr, sub.Done())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[metrics] http server error: %v", err)
			}
		}()
	}

	<-sub.Done()
	log.Printf("replybot stopped")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[metrics] shutdown error: %v", err)
		}
	}
	return sub.Err()
}

func loadTable(path string) (*rules.Table, error) {
	if path == "" {
		return rules.BuildRules(), nil
	}
	return rules.LoadFile(path)
}

func rulesSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

// newPlatform builds the client for cfg.Platform and a func releasing it.
func newPlatform(cfg config.Config) (platform.Client, func(), error) {
	switch cfg.Platform {
	case config.PlatformSlack:
		return slackrtm.New(slackrtm.Config{Token: cfg.SlackToken, Debug: cfg.SlackDebug}), func() {}, nil

	case config.PlatformGateway:
		gc := gateway.DefaultConfig()
		gc.URL = cfg.GatewayURL
		return gateway.New(gc), func() {}, nil

	case config.PlatformNATS:
		nc := messaging.DefaultNATSConfig()
		nc.URL = cfg.NATSURL
		nc.Name = cfg.BotName
		natsClient, err := messaging.NewNATSClient(nc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		store, err := directory.NewStore(cfg.RedisAddr)
		if err != nil {
			natsClient.Close()
			return nil, nil, err
		}
		identity := platform.Identity{SelfID: cfg.BotID, SelfName: cfg.BotName, TeamName: cfg.TeamName}
		release := func() {
			natsClient.Close()
			if err := store.Close(); err != nil {
				log.Printf("[directory] close error: %v", err)
			}
		}
		return messaging.NewBus(natsClient, store, identity), release, nil
	}
	return nil, nil, fmt.Errorf("unknown platform %q", cfg.Platform)
}

// newMetricsServer serves /metrics and /health. Health reports 503 once
// routing has stopped.
func newMetricsServer(addr string, stopped <-chan struct{}) *http.Server {
	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		select {
		case <-stopped:
			status, code = "stopped", http.StatusServiceUnavailable
		default:
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		resp := struct {
			Status string `json:"status"`
			Uptime string `json:"uptime"`
		}{
			Status: status,
			Uptime: time.Since(startedAt).Round(time.Second).String(),
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
