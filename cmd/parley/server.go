package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/internal/core"
	"github.com/parleychat/parley/internal/core/debug"
	"github.com/parleychat/parley/internal/server"
)

var quorumExitFlag bool

var serverCmd = &cobra.Command{
	Use:   "server <port> <max_clients>",
	Short: "Run the group chat server",
	Args:  cobra.ExactArgs(2),
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().BoolVar(&quorumExitFlag, "quorum-exit", false,
		"Exit once every connected client has sent a disconnect frame")
}

func runServer(_ *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q: must be 1-65535", args[0])
	}

	maxClients, err := strconv.Atoi(args[1])
	if err != nil || maxClients < 1 || maxClients > 1024 {
		return fmt.Errorf("invalid max_clients %q: must be 1-1024", args[1])
	}

	cfg := core.LoadConfig(ConfigFlag)
	if quorumExitFlag {
		cfg.Server.QuorumExit = true
	}

	logger, err := core.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	if cfg.Debugging.Enabled {
		debug.StartUtilities(logger, cfg.Debugging.PprofPort)
	}

	// SIGINT/SIGTERM request a graceful shutdown; the reactor closes
	// every connection before returning.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := server.New(cfg, logger, maxClients)
	return s.ListenAndServe(ctx, fmt.Sprintf("%s:%d", cfg.Server.Host, port))
}
