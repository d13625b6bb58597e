/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package cmd

import (
	"context"
	"fmt"
	"github.com/jt05610/syringe/devices/syringe_pump"
	"github.com/jt05610/syringe/pump"
	"github.com/spf13/cobra"
	"strconv"
	"strings"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <pump> KEY=VALUE...",
	Short: "Send one SET command to a pump",
	Long: `Send one SET command carrying every KEY=VALUE pair, in the order given.
Numbers are sent in their shortest form, everything else upper-cased.

  pumpctl set A FLOW=500 DIRECTION=INFUSE STATE=RUN`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := parseParams(args[1:])
		failOnError(err, "Bad parameters")
		withPump(cmd, func(ctx context.Context, d *syringepump.SyringePump) error {
			resp, err := d.SetParams(ctx, args[0], params...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}

// parseParams splits KEY=VALUE arguments. Values that parse as numbers are
// passed on as numbers.
func parseParams(args []string) ([]pump.Param, error) {
	ret := make([]pump.Param, len(args))
	for i, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		ret[i] = pump.Param{Key: k, Value: v}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			ret[i].Value = f
		}
	}
	return ret, nil
}
