package main

import (
	"fmt"
	"wticket-bot/services/profile"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the server status bar",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, cleanup, err := login(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		status, err := profile.NewService(client).Status(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("date:      %s\n", status.Date.Format("02-01-2006"))
		fmt.Printf("warehouse: %s - %s (unid %d)\n", status.Warehouse.Code, status.Warehouse.Name, status.Warehouse.Unid)
		fmt.Printf("user:      %d - %s (unid %d, login %s)\n", status.User.Id, status.User.Code, status.User.Unid, status.User.Login)
		fmt.Printf("version:   %d\n", status.Version)
		return nil
	},
}
