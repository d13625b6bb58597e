package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	CommandTopic = "commands"
	EventTopic   = "events"
	ErrorTopic   = "errors"
)

var ErrUnknownCommand = errors.New("unknown command")

type Handler func(ctx context.Context, data json.RawMessage) (interface{}, error)

type Handlers map[string]Handler

// Handle runs the handler registered for the command. On failure the
// returned event is already addressed to the errors topic.
func (h Handlers) Handle(ctx context.Context, cmd *Command) (*Event, error) {
	ev := &Event{
		ID:    cmd.ID,
		Name:  cmd.Name,
		Topic: EventTopic,
		From:  cmd.To,
	}
	f, ok := h[cmd.Name]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
		ev.Topic = ErrorTopic
		ev.Data = &ErrorData{Error: err.Error()}
		return ev, err
	}
	res, err := f(ctx, cmd.Data)
	if err != nil {
		ev.Topic = ErrorTopic
		ev.Data = &ErrorData{Error: err.Error()}
		return ev, err
	}
	ev.Data = res
	return ev, nil
}

// Names lists the registered commands in sorted order.
func (h Handlers) Names() []string {
	ret := make([]string, 0, len(h))
	for k := range h {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
