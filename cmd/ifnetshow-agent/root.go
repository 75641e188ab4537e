package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LucaCeccarelli/projet-integrateur/config"
	"github.com/LucaCeccarelli/projet-integrateur/ifnet"
	"github.com/LucaCeccarelli/projet-integrateur/logutil"
	"github.com/LucaCeccarelli/projet-integrateur/svcutil"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ifnetshow-agent",
		Short: "Serve this machine's interface addresses over TCP",
		Long: `ifnetshow-agent accepts ifnetshow queries ("ALL" or "IFNAME <name>") and
answers with the matching interface addresses in ifshow format.`,
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

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(cfg.IfnetTCPPort))
	if err != nil {
		return err
	}
	srv := ifnet.NewServer(ln, ifnet.ServerConfig{
		MaxConns: cfg.IfnetMaxConns,
		Logger:   logger,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "ifnetshow-agent listening on TCP port %d...\n", cfg.IfnetTCPPort)
	return svcutil.Run(ctx, "ifnetshow-agent", logger, srv)
}
