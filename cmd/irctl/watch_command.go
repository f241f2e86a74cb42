package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"libdb.so/lirc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var remote string
	var button string
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the button presses lircd broadcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			endpoint, err := ctx.endpoint()
			if err != nil {
				return err
			}

			opts, err := ctx.clientOptions(logger)
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			runCtx, cancel := context.WithCancelCause(parent)
			defer cancel(nil)

			conn := lirc.NewEndpoint(endpoint)
			conn.Timeout = opts.Timeout

			startErr := make(chan error, 1)
			go func() {
				err := conn.Start(runCtx, logger.With("module", "lirc"))
				cancel(err)
				startErr <- err
			}()

			out := cmd.OutOrStdout()
			var seen int
			handlers := lirc.RemoteHandlers{
				remote: lirc.ButtonHandlers{
					button: func(press lirc.ButtonPress) {
						fmt.Fprintln(out, press.String())
						seen++
						if count > 0 && seen >= count {
							cancel(errWatchDone)
						}
					},
				},
			}

			routeErr := lirc.RouteEvents(runCtx, conn.Events, handlers)
			if routeErr != nil && !errors.Is(routeErr, context.Canceled) {
				cancel(routeErr)
			}
			err = <-startErr

			cause := context.Cause(runCtx)
			switch {
			case errors.Is(cause, errWatchDone):
				return nil
			case routeErr != nil && !errors.Is(routeErr, context.Canceled):
				return routeErr
			case err != nil:
				var cerr *lirc.ConnectError
				if errors.As(err, &cerr) {
					return wrapDialError(err, endpoint)
				}
				return err
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&remote, "remote", "r", "*", "Only print presses of remotes matching this glob")
	cmd.Flags().StringVarP(&button, "button", "b", "*", "Only print presses of buttons matching this glob")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many presses (0 means run until interrupted)")
	return cmd
}

var errWatchDone = errors.New("watch: count reached")
