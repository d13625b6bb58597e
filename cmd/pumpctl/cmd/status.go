/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package cmd

import (
	"context"
	"fmt"
	"github.com/jt05610/syringe/devices/syringe_pump"
	"github.com/spf13/cobra"
)

var raw bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <pump>",
	Short: "Print every setting of a pump",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withPump(cmd, func(ctx context.Context, d *syringepump.SyringePump) error {
			resp, err := d.Status(ctx, &syringepump.PumpRequest{Pump: args[0]})
			if err != nil {
				return err
			}
			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Raw)
				return err
			}
			return printJSON(cmd, resp)
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&raw, "raw", "r", false, "print the status line as received")
}
