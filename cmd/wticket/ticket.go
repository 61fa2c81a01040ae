package main

import (
	"fmt"
	"os"
	"strconv"
	"wticket-bot/lib/scrapers/wticket/table"
	"wticket-bot/services/ticket"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "look up workflow tickets",
}

var ticketGetCmd = &cobra.Command{
	Use:   "get <ticket number>",
	Short: "fetch one ticket by its number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		number, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ticket number must be numeric: %w", err)
		}

		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := ticket.NewService(client).Get(ctx, number)
		if err != nil {
			return err
		}

		fmt.Printf("unid:        %d\n", summary.Unid)
		fmt.Printf("number:      %d\n", summary.Number)
		fmt.Printf("name:        %s\n", summary.SearchName)
		fmt.Printf("description: %s\n", summary.Description)
		return nil
	},
}

var searchContains bool
var searchLimit int

var ticketSearchCmd = &cobra.Command{
	Use:   "search <column> <value>",
	Short: "search the ticket listing on one of its columns",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		op := table.OpExact
		if searchContains {
			op = table.OpContains
		}

		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summaries, err := ticket.NewService(client).Search(ctx, args[0], op, args[1], searchLimit)
		if err != nil {
			return err
		}

		t := prettytable.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(prettytable.Row{"unid", "number", "name", "description"})
		for _, summary := range summaries {
			t.AppendRow(prettytable.Row{summary.Unid, summary.Number, summary.SearchName, summary.Description})
		}
		t.Render()
		return nil
	},
}

var ticketMessagesCmd = &cobra.Command{
	Use:   "messages <ticket unid>",
	Short: "print a ticket's message thread",
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

		messages, err := ticket.NewService(client).ListMessages(ctx, ticketUnid)
		if err != nil {
			return err
		}

		for _, message := range messages {
			fmt.Printf(
				"[%d] %s (%s, %s) %s\n%s\n\n",
				message.Unid,
				message.Title,
				message.Author,
				message.Type,
				message.Timestamp.Format("02-01-2006 15:04"),
				message.Body,
			)
		}
		return nil
	},
}

func init() {
	ticketSearchCmd.Flags().BoolVar(&searchContains, "contains", false, "substring match instead of exact")
	ticketSearchCmd.Flags().IntVar(&searchLimit, "limit", 0, "cap the number of rows returned")
	ticketCmd.AddCommand(ticketGetCmd)
	ticketCmd.AddCommand(ticketSearchCmd)
	ticketCmd.AddCommand(ticketMessagesCmd)
}
