// Package cli is the command line entry point of a mortar application.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/config"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

// New returns the root command. Without a subcommand it prints help.
func New(app *mortar.App, settings *config.Settings) *cobra.Command {
	if settings == nil {
		settings = app.Settings
	}

	root := &cobra.Command{
		Use:   "mortar",
		Short: "Run and inspect a mortar application",
		Long: `Usage: mortar <command> <options>

Available commands:
 * help - shows this message
 * runserver host:port - runs web server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunserverCmd(app, settings))

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(root *cobra.Command) {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunserverCmd(app *mortar.App, settings *config.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "runserver [host:port]",
		Short: "Runs the web server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := app.Logger()

			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}

			addr, ok := ResolveAddr(arg)
			if !ok {
				addr = settings.Addr
				if _, valid := ResolveAddr(addr); !valid {
					addr = net.JoinHostPort(defaultHost, defaultPort)
				}
				log.Warn().Str("given", arg).Str("addr", addr).Msg("incorrect host:port, using default settings")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}

			return Serve(ctx, ln, app, settings.ShutdownTimeout, log)
		},
	}
}

// ResolveAddr validates a host:port argument. An empty port becomes 8080
// and an empty host binds every interface.
func ResolveAddr(arg string) (string, bool) {
	if arg == "" {
		return "", false
	}

	host, port, err := net.SplitHostPort(arg)
	if err != nil {
		return "", false
	}
	if host == "" {
		host = defaultHost
	}
	if port == "" {
		port = defaultPort
	}

	return net.JoinHostPort(host, port), true
}

// Serve runs h on ln until ctx is done, then drains in-flight requests for
// at most shutdownTimeout.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, shutdownTimeout time.Duration, log zerolog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
