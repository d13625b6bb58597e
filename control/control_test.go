package control

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func testHandlers() Handlers {
	return Handlers{
		"echo": func(ctx context.Context, data json.RawMessage) (interface{}, error) {
			var v map[string]interface{}
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
		"fail": func(ctx context.Context, data json.RawMessage) (interface{}, error) {
			return nil, errors.New("device said no")
		},
	}
}

func TestHandlers_Handle(t *testing.T) {
	h := testHandlers()
	cmd := NewCommand("syringe_pump", "echo", json.RawMessage(`{"pump":"A"}`))
	cmd.ID = "42"
	ev, err := h.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatal(err)
	}
	if ev.RoutingKey() != "syringe_pump.events.echo" {
		t.Errorf("unexpected routing key %q", ev.RoutingKey())
	}
	if ev.ID != "42" {
		t.Errorf("expected id to carry over, got %q", ev.ID)
	}
	want := map[string]interface{}{"pump": "A"}
	if !reflect.DeepEqual(ev.Data, want) {
		t.Errorf("expected %v, got %v", want, ev.Data)
	}
}

func TestHandlers_HandleErrors(t *testing.T) {
	h := testHandlers()
	cases := []struct {
		name    string
		command string
		target  error
	}{
		{"Unknown", "explode", ErrUnknownCommand},
		{"Failed", "fail", nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev, err := h.Handle(context.Background(), NewCommand("dev", c.command, nil))
			if err == nil {
				t.Fatal("expected error")
			}
			if c.target != nil && !errors.Is(err, c.target) {
				t.Errorf("expected %v, got %v", c.target, err)
			}
			if ev.Topic != ErrorTopic {
				t.Errorf("expected errors topic, got %q", ev.Topic)
			}
			if ev.RoutingKey() != "dev.errors."+c.command {
				t.Errorf("unexpected routing key %q", ev.RoutingKey())
			}
			if _, ok := ev.Data.(*ErrorData); !ok {
				t.Errorf("expected *ErrorData, got %T", ev.Data)
			}
		})
	}
}

func TestCommand_RoutingKey(t *testing.T) {
	cmd := NewCommand("pump_bank", "Set Flow", nil)
	if got := cmd.RoutingKey(); got != "pump_bank.commands.set_flow" {
		t.Errorf("unexpected routing key %q", got)
	}
}

func TestHandlers_Names(t *testing.T) {
	got := testHandlers().Names()
	if !reflect.DeepEqual(got, []string{"echo", "fail"}) {
		t.Errorf("unexpected names %v", got)
	}
}
