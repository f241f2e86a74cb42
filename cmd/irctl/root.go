package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "irctl",
		Short:         "Control lircd from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.socket, "socket", "d", "", "Path to the lircd socket")
	pf.StringVarP(&flags.address, "address", "a", "", "lircd TCP address (host[:port]); overrides --socket")
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Time to wait for each reply (default from config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newVersionCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newSendCommand(ctx))
	rootCmd.AddCommand(newSendStartCommand(ctx))
	rootCmd.AddCommand(newSendStopCommand(ctx))
	rootCmd.AddCommand(newSimulateCommand(ctx))
	rootCmd.AddCommand(newSetInputLogCommand(ctx))
	rootCmd.AddCommand(newSetTransmittersCommand(ctx))
	rootCmd.AddCommand(newDrvOptionCommand(ctx))
	rootCmd.AddCommand(newRawCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newPathsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
