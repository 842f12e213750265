package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"letschat/internal/client/ws"
	"letschat/internal/logx"
	"letschat/internal/session"
	"letschat/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "letschat",
	Short: "Terminal chat client",
	RunE:  runClient,
}

var (
	flagServer   string
	flagUsername string
	flagLogFile  string
	flagDebug    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServer, "server", "ws://localhost:8080/", "chat server websocket address")
	flags.StringVar(&flagUsername, "username", "", "display name to register with")
	flags.StringVar(&flagLogFile, "log-file", "", "optional file to write logs to (logs are discarded otherwise, so they never corrupt the interface)")
	flags.BoolVar(&flagDebug, "debug", false, "log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute client command")
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	if flagUsername == "" {
		return fmt.Errorf("--username is required")
	}

	var out io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logx.Init(flagDebug, out)

	conn := ws.New(flagServer)
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("connect to %s: %w", flagServer, err)
	}
	defer conn.Close()

	log.Info().Str("server", flagServer).Str("username", flagUsername).Msg("connected")

	sess := session.New(flagUsername, conn,
		session.WithErrorHandler(func(err error) {
			log.Warn().Err(err).Msg("session error")
		}),
	)

	program := tea.NewProgram(tui.New(sess, conn.Frames()), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
