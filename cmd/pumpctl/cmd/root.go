/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package cmd

import (
	"context"
	"encoding/json"
	"github.com/jt05610/syringe/devices/syringe_pump"
	"github.com/jt05610/syringe/env"
	"github.com/jt05610/syringe/pump"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"os"
	"time"
)

var (
	portName     string
	baud         int
	readTimeout  time.Duration
	writeTimeout time.Duration
	verbose      bool
)

var logger = zap.NewNop()

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "pumpctl",
	Short: "pumpctl talks to a four channel syringe pump controller",
	Long: `pumpctl drives pumps A through D on a syringe pump controller attached
to a serial port. Settings come from the environment (or a .env file) and
are overridden by flags:

  SERIAL_PORT, SERIAL_BAUD, SERIAL_READ_TIMEOUT, SERIAL_WRITE_TIMEOUT,
  HTTP_ADDR, RABBITMQ_URI, AMQP_EXCHANGE, DEVICE_ID`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			panic(err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "serial port (SERIAL_PORT)")
	rootCmd.PersistentFlags().IntVarP(&baud, "baud", "b", 115200, "baud rate (SERIAL_BAUD)")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "read-timeout", time.Second, "read timeout (SERIAL_READ_TIMEOUT)")
	rootCmd.PersistentFlags().DurationVar(&writeTimeout, "write-timeout", time.Second, "write timeout (SERIAL_WRITE_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every exchange")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func failOnError(err error, msg string) {
	if err != nil {
		logger.Fatal(msg, zap.Error(err))
	}
}

// environment loads the environment and applies any flags the user set.
func environment(cmd *cobra.Command) *env.Environment {
	environ, err := env.Load(logger)
	failOnError(err, "Failed to load environment")
	return applyFlags(cmd, environ)
}

// serialEnvironment is environment for commands that open the port: without
// --port, SERIAL_PORT must be set.
func serialEnvironment(cmd *cobra.Command) *env.Environment {
	if cmd.Flags().Changed("port") {
		return environment(cmd)
	}
	return applyFlags(cmd, env.LoadEnv(logger))
}

func applyFlags(cmd *cobra.Command, environ *env.Environment) *env.Environment {
	flags := cmd.Flags()
	if flags.Changed("port") {
		environ.SerialPort = portName
	}
	if flags.Changed("baud") {
		environ.Baud = baud
	}
	if flags.Changed("read-timeout") {
		environ.ReadTimeout = readTimeout
	}
	if flags.Changed("write-timeout") {
		environ.WriteTimeout = writeTimeout
	}
	return environ
}

func openChannel(ctx context.Context, environ *env.Environment) *pump.Channel {
	ch, err := pump.Open(ctx, pump.Options{
		Port:         environ.SerialPort,
		BaudRate:     environ.Baud,
		ReadTimeout:  environ.ReadTimeout,
		WriteTimeout: environ.WriteTimeout,
	}, logger)
	failOnError(err, "Failed to open pump channel")
	return ch
}

// withPump opens the channel, runs f and closes the channel again.
func withPump(cmd *cobra.Command, f func(ctx context.Context, d *syringepump.SyringePump) error) {
	ctx := cmd.Context()
	ch := openChannel(ctx, serialEnvironment(cmd))
	err := f(ctx, syringepump.NewSyringePump(ch, logger))
	if cErr := ch.Close(); cErr != nil {
		logger.Error("Failed to close pump channel", zap.Error(cErr))
	}
	failOnError(err, "Command failed")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
