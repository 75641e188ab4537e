package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/LucaCeccarelli/projet-integrateur/config"
	"github.com/LucaCeccarelli/projet-integrateur/discovery"
	"github.com/LucaCeccarelli/projet-integrateur/logutil"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighborshow [--hop n]",
		Short: "List machines reachable within n broadcast hops",
		Long: `neighborshow broadcasts a NEIGHBOR_REQUEST on the local network and prints
the hostnames of every neighborshow-agent that answers within the response
window. Agents re-broadcast the request while hops remain, so larger values
reach further.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().Int("hop", 1, "Number of broadcast hops (values below 1 mean 1)")
	cmd.Flags().String("config", "", "Config file (default: $NEIGHBORSHOW_CONFIG or ./neighborshow.yaml)")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	hop, _ := cmd.Flags().GetInt("hop")
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := logutil.New(os.Stderr, cfg.LogLevel)

	broadcast, err := discovery.BroadcastAddr(cfg.DiscoveryBroadcastAddress, cfg.DiscoveryUDPPort)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	res, err := discovery.Discover(ctx, broadcast, hop, logger)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func printResult(w io.Writer, res discovery.Result) error {
	if _, err := fmt.Fprintf(w, "Neighboring machines (hop = %d):\n", res.Hop); err != nil {
		return err
	}
	for _, h := range res.Hosts {
		if _, err := fmt.Fprintf(w, "  %s\n", h); err != nil {
			return err
		}
	}
	return nil
}
