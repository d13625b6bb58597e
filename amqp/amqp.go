package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/jt05610/syringe/control"
	"github.com/jt05610/syringe/env"
	amqp "github.com/rabbitmq/amqp091-go"
	"strings"
)

const (
	HeaderEventID   = "x-event-id"
	HeaderEventName = "x-event-name"
)

var ErrRoutingKey = errors.New("invalid routing key")

// splitKey breaks <device>.<topic>.<name> apart.
func splitKey(key string) (string, string, string, error) {
	sk := strings.Split(key, ".")
	if len(sk) != 3 {
		return "", "", "", fmt.Errorf("%w: %q", ErrRoutingKey, key)
	}
	return sk[0], sk[1], sk[2], nil
}

func headerString(t amqp.Table, key string) string {
	if t == nil {
		return ""
	}
	if s, ok := t[key].(string); ok {
		return s
	}
	return ""
}

type CommandService struct{}

func (a *CommandService) Load(_ context.Context, data amqp.Delivery) (*control.Command, error) {
	to, topic, name, err := splitKey(data.RoutingKey)
	if err != nil {
		return nil, err
	}
	id := headerString(data.Headers, HeaderEventID)
	if id == "" {
		id = data.CorrelationId
	}
	res := &control.Command{
		ID:    id,
		Name:  name,
		Topic: topic,
		To:    to,
	}
	if len(data.Body) > 0 {
		if !json.Valid(data.Body) {
			return res, fmt.Errorf("command %s: body is not JSON", name)
		}
		res.Data = json.RawMessage(data.Body)
	}
	return res, nil
}

// Flush encodes a command for publishing, giving it a fresh id when it has
// none so the reply can be matched.
func (a *CommandService) Flush(_ context.Context, cmd *control.Command) (amqp.Publishing, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	body := []byte(cmd.Data)
	if len(body) == 0 {
		body = []byte("{}")
	}
	return amqp.Publishing{
		Body:          body,
		ContentType:   "application/json",
		CorrelationId: cmd.ID,
		MessageId:     cmd.ID,
		Headers: amqp.Table{
			HeaderEventName: cmd.Name,
			HeaderEventID:   cmd.ID,
		},
	}, nil
}

type EventService struct{}

func (a *EventService) Load(_ context.Context, data amqp.Delivery) (*control.Event, error) {
	from, topic, name, err := splitKey(data.RoutingKey)
	if err != nil {
		return nil, err
	}
	res := &control.Event{
		ID:    headerString(data.Headers, HeaderEventID),
		Name:  name,
		Topic: topic,
		From:  from,
	}
	if res.ID == "" {
		res.ID = data.CorrelationId
	}
	if len(data.Body) == 0 {
		return res, nil
	}
	var v interface{}
	if err := json.Unmarshal(data.Body, &v); err != nil {
		return nil, err
	}
	res.Data = v
	return res, nil
}

func (a *EventService) Flush(_ context.Context, event *control.Event) (amqp.Publishing, error) {
	bytes, err := json.Marshal(&event.Data)
	if err != nil {
		var zero amqp.Publishing
		return zero, err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	return amqp.Publishing{
		Body:          bytes,
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: event.ID,
		Headers: amqp.Table{
			HeaderEventName: event.Name,
			HeaderEventID:   event.ID,
		},
	}, nil
}

type Connection struct {
	*amqp.Connection
	*amqp.Channel
}

func (c *Connection) Close() error {
	if c.Channel != nil {
		err := c.Channel.Close()
		if err != nil {
			return err
		}
	}
	return c.Connection.Close()
}

func Dial(environ *env.Environment) (*Connection, error) {
	conn, err := amqp.Dial(environ.URI)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Connection{conn, ch}, nil
}
