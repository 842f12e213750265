package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"letschat/internal/logx"
	"letschat/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "letschat-server",
	Short: "Chat server speaking the letschat envelope protocol",
	RunE:  runServer,
}

var (
	flagAddr  string
	flagDebug bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAddr, "addr", ":8080", "listen address")
	flags.BoolVar(&flagDebug, "debug", false, "log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute server command")
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	logx.Init(flagDebug, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(flagAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		srv.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}
