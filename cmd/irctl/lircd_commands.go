package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"libdb.so/lirc"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lircd version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				version, err := lirc.Query(c, client, lirc.Version{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [remote]",
		Short: "List remote controls, or the keys of one remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
					remotes, err := lirc.Query(c, client, lirc.ListRemotes{})
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(remotes))
					for _, remote := range remotes {
						rows = append(rows, []string{remote})
					}
					writeRows(cmd.OutOrStdout(), []string{"Remote"}, rows)
					return nil
				})
			}

			list, err := lirc.NewListKeys(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				keys, err := lirc.Query(c, client, list)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{fmt.Sprintf("%016x", key.Code), key.Name})
				}
				writeRows(cmd.OutOrStdout(), []string{"Code", "Key"}, rows, 0)
				return nil
			})
		},
	}
}

func newSendCommand(ctx *commandContext) *cobra.Command {
	var count uint

	cmd := &cobra.Command{
		Use:   "send <remote> <button>...",
		Short: "Send one or more IR signals",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := args[0]

			commands := make([]lirc.Command, 0, len(args)-1)
			for _, button := range args[1:] {
				send, err := lirc.NewSendOnce(remote, button, count)
				if err != nil {
					return err
				}
				commands = append(commands, send)
			}

			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, commands)
			})
		},
	}

	cmd.Flags().UintVarP(&count, "count", "n", 0, "Number of times to repeat each signal")
	return cmd
}

func newSendStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send-start <remote> <button>",
		Short: "Start repeating an IR signal until send-stop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := lirc.NewSendStart(args[0], args[1])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, []lirc.Command{start})
			})
		},
	}
}

func newSendStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send-stop <remote> <button>",
		Short: "Stop repeating an IR signal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := lirc.NewSendStop(args[0], args[1])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, []lirc.Command{stop})
			})
		},
	}
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var repeat uint
	var code string

	cmd := &cobra.Command{
		Use:   "simulate <remote> <button>",
		Short: "Make lircd broadcast a button press as if it had been received",
		Long: "Make lircd broadcast a button press as if it had been received.\n" +
			"lircd only accepts this when started with --allow-simulate.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseUint(strings.TrimPrefix(code, "0x"), 16, 64)
			if err != nil {
				return fmt.Errorf("--code: %q is not a hex number", code)
			}

			simulate, err := lirc.NewSimulate(args[0], args[1], repeat, value)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, []lirc.Command{simulate})
			})
		},
	}

	cmd.Flags().UintVar(&repeat, "repeat", 0, "Repeat count of the simulated press (0-255)")
	cmd.Flags().StringVar(&code, "code", "0", "Scan code of the simulated press, in hex")
	return cmd
}

func newSetInputLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-inputlog [path]",
		Short: "Log received IR data to a file; no path stops logging",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			inputLog, err := lirc.NewSetInputLog(path)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, []lirc.Command{inputLog})
			})
		},
	}
}

func newSetTransmittersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-transmitters <n>...",
		Short: "Select the transmitters used for sending, numbered from 1",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transmitters := make([]uint, 0, len(args))
			for _, arg := range args {
				n, err := strconv.ParseUint(arg, 10, 0)
				if err != nil {
					return fmt.Errorf("transmitter %q is not a number", arg)
				}
				transmitters = append(transmitters, uint(n))
			}

			set, err := lirc.NewSetTransmitters(transmitters...)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, []lirc.Command{set})
			})
		},
	}
}

func newDrvOptionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drv-option <key> <value>",
		Short: "Set a driver option",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := lirc.NewDrvOption(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				return sendAll(c, client, []lirc.Command{option})
			})
		},
	}
}

func newRawCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <command>...",
		Short: "Send a command line verbatim and print the reply data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := lirc.NewRaw(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *lirc.Client) error {
				reply, err := client.SendCommand(c, raw)
				out := cmd.OutOrStdout()
				for _, line := range reply.Data {
					fmt.Fprintln(out, line)
				}
				return err
			})
		},
	}
}

// sendAll sends commands in order and stops at the first failure.
func sendAll(ctx context.Context, client *lirc.Client, commands []lirc.Command) error {
	for _, command := range commands {
		if _, err := client.SendCommand(ctx, command); err != nil {
			return err
		}
	}
	return nil
}
