package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/internal/client"
	"github.com/parleychat/parley/internal/core"
	"github.com/parleychat/parley/internal/protocol"
)

var clientCmd = &cobra.Command{
	Use:   "client <ip> <port> <username> <num_messages> <log_file>",
	Short: "Run the scripted chat client",
	Args:  cobra.ExactArgs(5),
	RunE:  runClient,
}

func runClient(_ *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q: must be 1-65535", args[1])
	}

	username := args[2]
	if err := validateUsername(username); err != nil {
		return err
	}

	numMessages, err := strconv.Atoi(args[3])
	if err != nil || numMessages < 0 {
		return fmt.Errorf("invalid message count %q", args[3])
	}

	cfg := core.LoadConfig(ConfigFlag)
	logger, err := core.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	return client.RunScripted(logger, client.Options{
		Addr:        fmt.Sprintf("%s:%d", args[0], port),
		Username:    username,
		NumMessages: numMessages,
		LogPath:     args[4],
	})
}

func validateUsername(username string) error {
	if len(username) == 0 || len(username) >= protocol.MaxUsernameLen {
		return fmt.Errorf("username must be 1-%d characters", protocol.MaxUsernameLen-1)
	}
	return nil
}
