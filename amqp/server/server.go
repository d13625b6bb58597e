package server

import (
	"context"
	"errors"
	"fmt"
	amqp2 "github.com/jt05610/syringe/amqp"
	"github.com/jt05610/syringe/control"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the part of *amqp.Channel the server uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ Channel = (*amqp.Channel)(nil)

// Server consumes <device>.commands.<name> and publishes the result of each
// handler to <device>.events.<name>, or <device>.errors.<name> on failure.
type Server struct {
	ch       Channel
	q        amqp.Queue
	cmd      *amqp2.CommandService
	event    *amqp2.EventService
	handlers control.Handlers
	exchange string
	deviceID string
	logger   *zap.Logger
}

func New(ch Channel, exchange string, deviceID string, handlers control.Handlers, logger *zap.Logger) (*Server, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		false,    // durable
		false,    // delete when unused
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	s := &Server{
		ch:       ch,
		q:        q,
		cmd:      &amqp2.CommandService{},
		event:    &amqp2.EventService{},
		handlers: handlers,
		exchange: exchange,
		deviceID: deviceID,
		logger:   logger,
	}
	for _, key := range s.routes() {
		err := ch.QueueBind(
			q.Name,   // queue name
			key,      // routing key
			exchange, // exchange
			false,
			nil)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
		logger.Debug("Bound route", zap.String("routing_key", key))
	}
	return s, nil
}

func (s *Server) routes() []string {
	names := s.handlers.Names()
	ret := make([]string, len(names))
	for i, name := range names {
		ret[i] = control.NewCommand(s.deviceID, name, nil).RoutingKey()
	}
	return ret
}

// Listen handles deliveries until ctx is done or the delivery channel
// closes.
func (s *Server) Listen(ctx context.Context) error {
	msgs, err := s.ch.Consume(
		s.q.Name, // queue
		"",       // consumer
		true,     // auto-ack
		false,    // exclusive
		false,    // no-local
		false,    // no-wait
		nil,      // args
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			s.handle(ctx, d)
		}
	}
}

func (s *Server) handle(ctx context.Context, d amqp.Delivery) {
	s.logger.Debug("Received message", zap.String("routing_key", d.RoutingKey), zap.ByteString("body", d.Body))
	cmd, err := s.cmd.Load(ctx, d)
	if err != nil {
		s.logger.Error("Failed to load command", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		if cmd == nil {
			return
		}
		s.publish(ctx, &control.Event{
			ID:    cmd.ID,
			Name:  cmd.Name,
			Topic: control.ErrorTopic,
			From:  s.deviceID,
			Data:  &control.ErrorData{Error: err.Error()},
		})
		return
	}
	ev, err := s.handlers.Handle(ctx, cmd)
	if err != nil {
		s.logger.Error("Failed to handle command", zap.String("command", cmd.Name), zap.Error(err))
	}
	s.publish(ctx, ev)
}

func (s *Server) publish(ctx context.Context, ev *control.Event) {
	resp, err := s.event.Flush(ctx, ev)
	if err != nil {
		s.logger.Error("Failed to encode event", zap.String("event", ev.Name), zap.Error(err))
		return
	}
	err = s.ch.PublishWithContext(ctx,
		s.exchange,
		ev.RoutingKey(),
		false,
		false,
		resp,
	)
	if err != nil {
		s.logger.Error("Failed to publish event", zap.String("routing_key", ev.RoutingKey()), zap.Error(err))
	}
}
