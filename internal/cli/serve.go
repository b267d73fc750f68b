package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/api"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and WebSocket",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.settings.ServeAddr
			}
			opts := []api.Option{
				api.WithLogger(a.logger),
				api.WithMaxChars(a.settings.MaxChars),
			}
			if a.analyzer != nil {
				opts = append(opts, api.WithAnalyzer(a.analyzer))
			}
			srv := api.NewServer(a.store, opts...)
			defer srv.Close()

			ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Serve(ctx, addr); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config serve.addr)")
	return cmd
}
