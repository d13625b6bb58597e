/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package cmd

import (
	"context"
	"errors"
	"github.com/jt05610/syringe/amqp"
	"github.com/jt05610/syringe/amqp/server"
	"github.com/jt05610/syringe/devices/syringe_pump"
	"github.com/jt05610/syringe/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"time"
)

var httpAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pumps over HTTP and, with RABBITMQ_URI set, AMQP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		environ := serialEnvironment(cmd)
		if cmd.Flags().Changed("addr") {
			environ.HTTPAddr = httpAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ch := openChannel(ctx, environ)
		defer func() {
			if err := ch.Close(); err != nil {
				logger.Error("Failed to close pump channel", zap.Error(err))
			}
		}()
		d := syringepump.NewSyringePump(ch, logger)

		errs := make(chan error, 2)
		srv := &http.Server{
			Addr:              environ.HTTPAddr,
			Handler:           middleware.Log(logger, d.Routes()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()

		if environ.AMQPEnabled() {
			conn, err := amqp.Dial(environ)
			failOnError(err, "Failed to connect to RabbitMQ")
			defer func() {
				if err := conn.Close(); err != nil {
					logger.Error("Failed to close RabbitMQ connection", zap.Error(err))
				}
			}()
			s, err := server.New(conn.Channel, environ.Exchange, environ.DeviceID, d.Handlers(), logger)
			failOnError(err, "Failed to start device server")
			go func() {
				if err := s.Listen(ctx); err != nil {
					errs <- err
				}
			}()
		}

		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
		case err := <-errs:
			logger.Error("Server failed", zap.Error(err))
		}
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Error("Failed to shut down HTTP server", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&httpAddr, "addr", "a", ":8080", "HTTP listen address (HTTP_ADDR)")
}
