package main

import (
	"fmt"
	"strconv"
	"wticket-bot/services/ticket"

	"github.com/spf13/cobra"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "write to ticket message threads",
}

var addType string
var addColor string
var addTitle string
var addBody string

var messageAddCmd = &cobra.Command{
	Use:   "add <ticket unid>",
	Short: "add a message to a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticketUnid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ticket unid must be numeric: %w", err)
		}

		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return ticket.NewService(client).AddMessage(ctx, ticketUnid, ticket.CreateMessage{
			Type:  ticket.MessageType(addType),
			Color: ticket.MessageColor(addColor),
			Title: addTitle,
			Body:  addBody,
		})
	},
}

var messagePinCmd = &cobra.Command{
	Use:   "pin <message unid>",
	Short: "pin a message to the top of its thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		messageUnid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("message unid must be numeric: %w", err)
		}

		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return ticket.NewService(client).PinMessage(ctx, messageUnid)
	},
}

var messageUnpinCmd = &cobra.Command{
	Use:   "unpin <message unid>",
	Short: "unpin a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		messageUnid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("message unid must be numeric: %w", err)
		}

		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return ticket.NewService(client).UnpinMessage(ctx, messageUnid)
	},
}

func init() {
	messageAddCmd.Flags().StringVar(&addType, "type", "I", "message type, I (internal) or E (external)")
	messageAddCmd.Flags().StringVar(&addColor, "color", "", "header color, one of the server's palette names")
	messageAddCmd.Flags().StringVar(&addTitle, "title", "", "message title")
	messageAddCmd.Flags().StringVar(&addBody, "body", "", "message body")
	messageCmd.AddCommand(messageAddCmd)
	messageCmd.AddCommand(messagePinCmd)
	messageCmd.AddCommand(messageUnpinCmd)
}
