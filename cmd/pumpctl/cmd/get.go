/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package cmd

import (
	"context"
	"fmt"
	"github.com/jt05610/syringe/devices/syringe_pump"
	"github.com/spf13/cobra"
	"strings"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <pump> <field>",
	Short: "Read one setting of a pump",
	Long: fmt.Sprintf(`Read one setting of a pump from its status line. Missing settings
report their defaults.

Fields: %s`, strings.Join(syringepump.Fields(), ", ")),
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withPump(cmd, func(ctx context.Context, d *syringepump.SyringePump) error {
			resp, err := d.GetField(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Value)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
