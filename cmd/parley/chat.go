package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/internal/client"
)

// Port the interactive client connects to when none is configured.
const defaultChatPort = 8080

var chatCmd = &cobra.Command{
	Use:   "chat <ip> <username>",
	Short: "Run the interactive chat client",
	Args:  cobra.ExactArgs(2),
	RunE:  runChat,
}

func runChat(_ *cobra.Command, args []string) error {
	username := args[1]
	if err := validateUsername(username); err != nil {
		return err
	}

	return client.RunInteractive(fmt.Sprintf("%s:%d", args[0], defaultChatPort), username)
}
