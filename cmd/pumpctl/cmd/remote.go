/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package cmd

import (
	"context"
	"encoding/json"
	"github.com/jt05610/syringe/amqp"
	"github.com/jt05610/syringe/amqp/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"time"
)

var remoteTimeout time.Duration

// remoteCmd represents the remote command
var remoteCmd = &cobra.Command{
	Use:   "remote <command> [json]",
	Short: "Send a command to a pump server over RabbitMQ",
	Long: `Publish a command to the device named by DEVICE_ID and print the event
it answers with. The body defaults to {}.

  pumpctl remote set_flow '{"pump":"A","value":500}'
  pumpctl remote status '{"pump":"A"}'`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		environ := environment(cmd)
		if !environ.AMQPEnabled() {
			logger.Fatal("RABBITMQ_URI not set")
		}
		body := json.RawMessage("{}")
		if len(args) == 2 {
			body = json.RawMessage(args[1])
			if !json.Valid(body) {
				logger.Fatal("Body is not valid JSON", zap.String("body", args[1]))
			}
		}
		conn, err := amqp.Dial(environ)
		failOnError(err, "Failed to connect to RabbitMQ")
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Error("Failed to close RabbitMQ connection", zap.Error(err))
			}
		}()
		c, err := client.NewController(conn.Channel, environ.Exchange, environ.DeviceID, logger)
		failOnError(err, "Failed to start controller")

		ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
		defer cancel()
		go func() {
			if err := c.Listen(ctx); err != nil {
				logger.Error("Controller stopped", zap.Error(err))
			}
		}()
		ev, err := c.Do(ctx, args[0], body)
		failOnError(err, "Command failed")
		failOnError(printJSON(cmd, ev.Data), "Failed to print event")
	},
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.Flags().DurationVarP(&remoteTimeout, "timeout", "t", 10*time.Second, "how long to wait for the answer")
}
