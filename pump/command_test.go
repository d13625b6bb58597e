package pump

import (
	"fmt"
	"testing"
)

func TestBuildSetCommand(t *testing.T) {
	cases := []struct {
		key   string
		value any
		want  string
	}{
		{KeyFlow, 500, "500"},
		{KeyFlow, 500.0, "500"},
		{KeyFlow, 12.5, "12.5"},
		{KeyDiameter, 8.17, "8.17"},
		{KeyDirection, "INFUSE", "INFUSE"},
		{KeyDirection, Withdraw, "WITHDRAW"},
		{KeyState, "RUN", "RUN"},
		{KeyUnit, "UL/MIN", "UL/MIN"},
		{KeyUnit, "ml/hr", "ML/HR"},
		{KeyGearbox, "100:1", "100:1"},
		{KeyMicrostep, "1/64", "1/64"},
		{KeyRod, "4-START", "4-START"},
		{KeyEnable, true, "ON"},
		{KeyEnable, "OFF", "OFF"},
	}
	for _, id := range IDs {
		for _, c := range cases {
			name := fmt.Sprintf("%s/%s=%v", id, c.key, c.value)
			t.Run(name, func(t *testing.T) {
				got := BuildSetCommand(id, Param{Key: c.key, Value: c.value})
				want := fmt.Sprintf("SET PUMP=%s %s=%s", id, c.key, c.want)
				if got != want {
					t.Errorf("expected %q, got %q", want, got)
				}
			})
		}
	}
}

func TestBuildSetCommandKeepsOrder(t *testing.T) {
	got := BuildSetCommand(B,
		Param{Key: "state", Value: "run"},
		Param{Key: KeyFlow, Value: 250.5},
		Param{Key: KeyDiameter, Value: 4.61},
	)
	want := "SET PUMP=B STATE=RUN FLOW=250.5 DIAMETER=4.61"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuildGetStatusCommand(t *testing.T) {
	for _, id := range IDs {
		want := fmt.Sprintf("GET PUMP=%s STATUS", id)
		if got := BuildGetStatusCommand(id); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestParseID(t *testing.T) {
	for _, s := range []string{"A", "b", " c ", "D"} {
		if _, err := ParseID(s); err != nil {
			t.Errorf("%q: unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "E", "AB", "1"} {
		if _, err := ParseID(s); err == nil {
			t.Errorf("%q: expected error", s)
		}
	}
}
