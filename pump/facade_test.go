package pump

import (
	"context"
	"errors"
	"testing"
)

const fullStatus = "FLOW=250 DIAMETER=4.61 DIRECTION=WITHDRAW STATE=RUN UNIT=ML/MIN GEARBOX=25:1 MICROSTEP=1/32 ROD=4-START ENABLE=ON\r\n"

func TestSetters(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		do   func(c *Channel) (string, error)
		want string
	}{
		{"SetFlow", func(c *Channel) (string, error) { return c.SetFlow(ctx, A, 500) }, "SET PUMP=A FLOW=500\n"},
		{"SetDiameter", func(c *Channel) (string, error) { return c.SetDiameter(ctx, B, 8.17) }, "SET PUMP=B DIAMETER=8.17\n"},
		{"SetDirectionInfuse", func(c *Channel) (string, error) { return c.SetDirection(ctx, C, DirectionOf(1)) }, "SET PUMP=C DIRECTION=INFUSE\n"},
		{"SetDirectionWithdraw", func(c *Channel) (string, error) { return c.SetDirection(ctx, C, DirectionOf(-1)) }, "SET PUMP=C DIRECTION=WITHDRAW\n"},
		{"SetStateRun", func(c *Channel) (string, error) { return c.SetState(ctx, D, true) }, "SET PUMP=D STATE=RUN\n"},
		{"SetStateStop", func(c *Channel) (string, error) { return c.SetState(ctx, D, false) }, "SET PUMP=D STATE=STOP\n"},
		{"SetUnit", func(c *Channel) (string, error) { return c.SetUnit(ctx, A, "ul/min") }, "SET PUMP=A UNIT=UL/MIN\n"},
		{"SetGearbox", func(c *Channel) (string, error) { return c.SetGearbox(ctx, A, "25:1") }, "SET PUMP=A GEARBOX=25:1\n"},
		{"SetMicrostep", func(c *Channel) (string, error) { return c.SetMicrostep(ctx, A, "1/64") }, "SET PUMP=A MICROSTEP=1/64\n"},
		{"SetThreadRod", func(c *Channel) (string, error) { return c.SetThreadRod(ctx, A, "4-START") }, "SET PUMP=A ROD=4-START\n"},
		{"SetEnableOn", func(c *Channel) (string, error) { return c.SetEnable(ctx, B, true) }, "SET PUMP=B ENABLE=ON\n"},
		{"SetEnableOff", func(c *Channel) (string, error) { return c.SetEnable(ctx, B, false) }, "SET PUMP=B ENABLE=OFF\n"},
		{"Set", func(c *Channel) (string, error) {
			return c.Set(ctx, A, Param{Key: KeyFlow, Value: 12.5}, Param{Key: KeyState, Value: "RUN"})
		}, "SET PUMP=A FLOW=12.5 STATE=RUN\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockTransport{responses: []string{"OK\r\n"}}
			c := newTestChannel(t, m)
			got, err := tc.do(c)
			if err != nil {
				t.Fatal(err)
			}
			if got != "OK" {
				t.Errorf("expected OK, got %q", got)
			}
			if w := m.Written(); w != tc.want {
				t.Errorf("expected %q, got %q", tc.want, w)
			}
		})
	}
}

func TestGetters(t *testing.T) {
	ctx := context.Background()
	status := func(t *testing.T, line string) *Channel {
		return newTestChannel(t, &mockTransport{responses: []string{line}})
	}
	t.Run("Flow", func(t *testing.T) {
		got, err := status(t, fullStatus).Flow(ctx, A)
		if err != nil || got != 250 {
			t.Errorf("expected 250, got %v (%v)", got, err)
		}
	})
	t.Run("FlowDefault", func(t *testing.T) {
		got, err := status(t, "STATE=RUN\n").Flow(ctx, A)
		if err != nil || got != DefaultFlow {
			t.Errorf("expected %v, got %v (%v)", DefaultFlow, got, err)
		}
	})
	t.Run("Diameter", func(t *testing.T) {
		got, err := status(t, fullStatus).Diameter(ctx, A)
		if err != nil || got != 4.61 {
			t.Errorf("expected 4.61, got %v (%v)", got, err)
		}
	})
	t.Run("DiameterDefault", func(t *testing.T) {
		got, err := status(t, "\n").Diameter(ctx, A)
		if err != nil || got != DefaultDiameter {
			t.Errorf("expected %v, got %v (%v)", DefaultDiameter, got, err)
		}
	})
	t.Run("DirectionInfuse", func(t *testing.T) {
		got, err := status(t, "DIRECTION=INFUSE\n").Direction(ctx, A)
		if err != nil || got != 1 {
			t.Errorf("expected +1, got %v (%v)", got, err)
		}
	})
	t.Run("DirectionWithdraw", func(t *testing.T) {
		got, err := status(t, "DIRECTION=WITHDRAW\n").Direction(ctx, A)
		if err != nil || got != -1 {
			t.Errorf("expected -1, got %v (%v)", got, err)
		}
	})
	t.Run("Running", func(t *testing.T) {
		got, err := status(t, "STATE=RUN\n").Running(ctx, A)
		if err != nil || !got {
			t.Errorf("expected true, got %v (%v)", got, err)
		}
	})
	t.Run("Stopped", func(t *testing.T) {
		got, err := status(t, "STATE=STOP\n").Running(ctx, A)
		if err != nil || got {
			t.Errorf("expected false, got %v (%v)", got, err)
		}
	})
	t.Run("Unit", func(t *testing.T) {
		got, err := status(t, fullStatus).Unit(ctx, A)
		if err != nil || got != "ML/MIN" {
			t.Errorf("expected ML/MIN, got %v (%v)", got, err)
		}
	})
	t.Run("Gearbox", func(t *testing.T) {
		got, err := status(t, "\n").Gearbox(ctx, A)
		if err != nil || got != DefaultGearbox {
			t.Errorf("expected %v, got %v (%v)", DefaultGearbox, got, err)
		}
	})
	t.Run("Microstep", func(t *testing.T) {
		got, err := status(t, fullStatus).Microstep(ctx, A)
		if err != nil || got != "1/32" {
			t.Errorf("expected 1/32, got %v (%v)", got, err)
		}
	})
	t.Run("ThreadRod", func(t *testing.T) {
		got, err := status(t, fullStatus).ThreadRod(ctx, A)
		if err != nil || got != "4-START" {
			t.Errorf("expected 4-START, got %v (%v)", got, err)
		}
	})
	t.Run("Enabled", func(t *testing.T) {
		got, err := status(t, fullStatus).Enabled(ctx, A)
		if err != nil || !got {
			t.Errorf("expected true, got %v (%v)", got, err)
		}
	})
	t.Run("DisabledByDefault", func(t *testing.T) {
		got, err := status(t, "\n").Enabled(ctx, A)
		if err != nil || got {
			t.Errorf("expected false, got %v (%v)", got, err)
		}
	})
	t.Run("Status", func(t *testing.T) {
		got, err := status(t, fullStatus).Status(ctx, A)
		if err != nil {
			t.Fatal(err)
		}
		if got.Direction != Withdraw || !got.Running || got.Flow != 250 {
			t.Errorf("unexpected status %+v", got)
		}
	})
}

func TestGetterSendsStatusQuery(t *testing.T) {
	m := &mockTransport{responses: []string{fullStatus}}
	c := newTestChannel(t, m)
	if _, err := c.Flow(context.Background(), C); err != nil {
		t.Fatal(err)
	}
	if w := m.Written(); w != "GET PUMP=C STATUS\n" {
		t.Errorf("expected status query, got %q", w)
	}
}

func TestGetterTransportError(t *testing.T) {
	c := newTestChannel(t, &mockTransport{})
	if _, err := c.Flow(context.Background(), A); !errors.Is(err, ErrTransportTimeout) {
		t.Errorf("expected ErrTransportTimeout, got %v", err)
	}
	if _, err := c.Running(context.Background(), A); !errors.Is(err, ErrTransportTimeout) {
		t.Errorf("expected ErrTransportTimeout, got %v", err)
	}
}
