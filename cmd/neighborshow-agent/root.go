package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/LucaCeccarelli/projet-integrateur/config"
	"github.com/LucaCeccarelli/projet-integrateur/discovery"
	"github.com/LucaCeccarelli/projet-integrateur/logutil"
	"github.com/LucaCeccarelli/projet-integrateur/server"
	"github.com/LucaCeccarelli/projet-integrateur/svcutil"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighborshow-agent",
		Short: "Answer and relay neighborshow discovery requests",
		Long: `neighborshow-agent listens for NEIGHBOR_REQUEST broadcasts, answers each one
with this machine's hostname and re-broadcasts requests that still have hops
left. With http_port set it also serves a JSON status API and /metrics.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().String("config", "", "Config file (default: $NEIGHBORSHOW_CONFIG or ./neighborshow.yaml)")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := logutil.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broadcast, err := discovery.BroadcastAddr(cfg.DiscoveryBroadcastAddress, cfg.DiscoveryUDPPort)
	if err != nil {
		return err
	}
	conn, err := discovery.Listen(ctx, ":"+strconv.Itoa(cfg.DiscoveryUDPPort))
	if err != nil {
		return err
	}
	defer conn.Close()

	agent := discovery.NewAgent(conn, discovery.AgentConfig{
		Broadcast:     broadcast,
		CacheCapacity: cfg.CacheCapacity,
		Logger:        logger,
	})
	services := []suture.Service{agent}

	if cfg.HTTPPort > 0 {
		svc, err := httpService(ctx, cfg, agent, broadcast, logger)
		if err != nil {
			return err
		}
		services = append(services, svc)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "neighborshow-agent listening on UDP port %d...\n", cfg.DiscoveryUDPPort)
	return svcutil.Run(ctx, "neighborshow-agent", logger, services...)
}

func httpService(ctx context.Context, cfg *config.Config, agent *discovery.Agent, broadcast net.Addr, logger *slog.Logger) (*server.Service, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(cfg.HTTPPort))
	if err != nil {
		return nil, fmt.Errorf("http listen: %w", err)
	}
	srv := server.New(server.Config{
		APIPrefix:        cfg.APIPrefix,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		AgentStats:       agent.Stats,
		Discover: func(ctx context.Context, hop int) (discovery.Result, error) {
			return discovery.Discover(ctx, broadcast, hop, logger)
		},
		Logger: logger,
	})
	return server.NewService(ln, srv.Handler(), logger), nil
}
