package main

import (
	"fmt"
	"os"
	"strconv"
	"wticket-bot/services/staff"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "staff members and their workloads",
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all staff members",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		overview, err := staff.NewService(client).List(ctx)
		if err != nil {
			return err
		}

		t := prettytable.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(prettytable.Row{"unid", "code", "name", "tasks"})
		for _, member := range overview.Members {
			t.AppendRow(prettytable.Row{member.Unid, member.StaffCode, member.Name, member.Tasks})
		}
		t.AppendFooter(prettytable.Row{"", "", "total", overview.TotalTasks})
		t.Render()
		return nil
	},
}

var staffTicketsCmd = &cobra.Command{
	Use:   "tickets <staff unid>",
	Short: "list the running tickets assigned to a staff member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		staffUnid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("staff unid must be numeric: %w", err)
		}

		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		tickets, err := staff.NewService(client).ListTickets(ctx, staffUnid)
		if err != nil {
			return err
		}

		t := prettytable.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(prettytable.Row{"unid", "number", "name", "description"})
		for _, summary := range tickets {
			t.AppendRow(prettytable.Row{summary.Unid, summary.Number, summary.SearchName, summary.Description})
		}
		t.Render()
		return nil
	},
}

func init() {
	staffCmd.AddCommand(staffListCmd)
	staffCmd.AddCommand(staffTicketsCmd)
}
