package main

import (
	"github.com/spf13/cobra"

	"github.com/LucaCeccarelli/projet-integrateur/config"
	"github.com/LucaCeccarelli/projet-integrateur/hostinfo"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ifshow (-a | -i <ifname>)",
		Short: "Show the IP addresses of local network interfaces",
		Args:  cobra.NoArgs,
		Example: `  ifshow -a
  ifshow -i eth0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().BoolP("all", "a", false, "List every interface with its addresses")
	cmd.Flags().StringP("interface", "i", "", "List the addresses of one interface")
	cmd.Flags().String("config", "", "Config file (default: $NEIGHBORSHOW_CONFIG or ./neighborshow.yaml)")
	cmd.MarkFlagsMutuallyExclusive("all", "interface")
	cmd.MarkFlagsOneRequired("all", "interface")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	if _, err := config.Load(cfgPath); err != nil {
		return err
	}
	ifaces, err := hostinfo.Interfaces()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if all, _ := cmd.Flags().GetBool("all"); all {
		return hostinfo.WriteAll(out, ifaces)
	}
	name, _ := cmd.Flags().GetString("interface")
	return hostinfo.WriteByName(out, ifaces, name)
}
