package main

import (
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LucaCeccarelli/projet-integrateur/config"
	"github.com/LucaCeccarelli/projet-integrateur/ifnet"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ifnetshow -n <addr> (-a | -i <ifname>)",
		Short: "Show the interface addresses of a remote ifnetshow-agent",
		Args:  cobra.NoArgs,
		Example: `  ifnetshow -n 192.168.1.20 -a
  ifnetshow -n 192.168.1.20 -i eth0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().StringP("addr", "n", "", "Address of the machine running ifnetshow-agent")
	cmd.Flags().BoolP("all", "a", false, "List every interface with its addresses")
	cmd.Flags().StringP("interface", "i", "", "List the addresses of one interface")
	cmd.Flags().String("config", "", "Config file (default: $NEIGHBORSHOW_CONFIG or ./neighborshow.yaml)")
	_ = cmd.MarkFlagRequired("addr")
	cmd.MarkFlagsMutuallyExclusive("all", "interface")
	cmd.MarkFlagsOneRequired("all", "interface")
	return cmd
}

func command(cmd *cobra.Command) ifnet.Command {
	if all, _ := cmd.Flags().GetBool("all"); all {
		return ifnet.All()
	}
	name, _ := cmd.Flags().GetString("interface")
	return ifnet.ByName(name)
}

func run(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	target := net.JoinHostPort(addr, strconv.Itoa(cfg.IfnetTCPPort))
	return ifnet.Query(ctx, target, command(cmd), cmd.OutOrStdout())
}
