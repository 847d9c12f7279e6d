package main

import (
	"context"
	"deliveroo-agent/internal/network"
	"deliveroo-agent/pkg/logger"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay for partner messages",
	Long: `Agents connect to /ws and register with a HELLO message.
Messages with an empty "to" are shouted to every other agent,
the rest are delivered to the named agent only.`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().String("addr", ":8090", "listen address")
}

func runRelay(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	srv := &http.Server{
		Addr:              addr,
		Handler:           network.NewRelay(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.WithField("addr", addr).Info("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	logger.Log.Info("shutting down relay...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
