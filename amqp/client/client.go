package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	amqp2 "github.com/jt05610/syringe/amqp"
	"github.com/jt05610/syringe/control"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"sync"
)

// Channel is the part of *amqp.Channel the controller uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RemoteError is the error text a device published on its errors topic.
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Controller sends commands to one device over the bus and waits for the
// matching event.
type Controller struct {
	ch       Channel
	q        amqp.Queue
	cmd      *amqp2.CommandService
	event    *amqp2.EventService
	exchange string
	deviceID string
	logger   *zap.Logger
	mu       sync.Mutex
	pending  map[string]chan *control.Event
}

func NewController(ch Channel, exchange string, deviceID string, logger *zap.Logger) (*Controller, error) {
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
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, topic := range []string{control.EventTopic, control.ErrorTopic} {
		key := deviceID + "." + topic + ".*"
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return &Controller{
		ch:       ch,
		q:        q,
		cmd:      &amqp2.CommandService{},
		event:    &amqp2.EventService{},
		exchange: exchange,
		deviceID: deviceID,
		logger:   logger,
		pending:  make(map[string]chan *control.Event),
	}, nil
}

// Listen routes incoming events to waiting Do calls until ctx is done.
func (a *Controller) Listen(ctx context.Context) error {
	msgs, err := a.ch.Consume(
		a.q.Name, // queue
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
			ev, err := a.event.Load(ctx, d)
			if err != nil {
				a.logger.Error("Failed to load event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
				continue
			}
			a.mu.Lock()
			waiter, found := a.pending[ev.ID]
			delete(a.pending, ev.ID)
			a.mu.Unlock()
			if !found {
				a.logger.Debug("Dropping unmatched event", zap.String("id", ev.ID), zap.String("event", ev.Name))
				continue
			}
			waiter <- ev
		}
	}
}

// Do publishes name with data as its JSON body and blocks until the device
// answers or ctx ends. Listen must be running.
func (a *Controller) Do(ctx context.Context, name string, data interface{}) (*control.Event, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	cmd := control.NewCommand(a.deviceID, name, body)
	p, err := a.cmd.Flush(ctx, cmd)
	if err != nil {
		return nil, err
	}
	waiter := make(chan *control.Event, 1)
	a.mu.Lock()
	a.pending[cmd.ID] = waiter
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.pending, cmd.ID)
		a.mu.Unlock()
	}()
	a.logger.Debug("Sending command", zap.String("routing_key", cmd.RoutingKey()), zap.String("id", cmd.ID))
	err = a.ch.PublishWithContext(ctx,
		a.exchange,       // exchange
		cmd.RoutingKey(), // routing key
		false,            // mandatory
		false,            // immediate
		p,
	)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev := <-waiter:
		if ev.Topic == control.ErrorTopic {
			msg := ""
			if m, ok := ev.Data.(map[string]interface{}); ok {
				msg, _ = m["error"].(string)
			}
			return ev, &RemoteError{Command: name, Message: msg}
		}
		return ev, nil
	}
}
