// Package pump talks to a four-channel syringe pump controller over a
// newline-terminated ASCII line protocol.
//
// Commands take the form
//
//	SET PUMP=<id> <KEY>=<VALUE> ...
//	GET PUMP=<id> STATUS
//
// and the controller answers every command with exactly one line of
// space-separated KEY=VALUE tokens.
package pump

import (
	"fmt"
	"strings"
)

// ID addresses one pump on the controller.
type ID string

const (
	A ID = "A"
	B ID = "B"
	C ID = "C"
	D ID = "D"
)

// IDs lists every addressable pump in order.
var IDs = []ID{A, B, C, D}

func (id ID) String() string {
	return string(id)
}

// ParseID accepts a pump letter in either case.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range IDs {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown pump %q: expected one of A, B, C, D", s)
}

// Keys understood by the controller firmware.
const (
	KeyFlow      = "FLOW"
	KeyDiameter  = "DIAMETER"
	KeyDirection = "DIRECTION"
	KeyState     = "STATE"
	KeyUnit      = "UNIT"
	KeyGearbox   = "GEARBOX"
	KeyMicrostep = "MICROSTEP"
	KeyRod       = "ROD"
	KeyEnable    = "ENABLE"
)

const (
	Infuse   Direction = 1
	Withdraw Direction = -1
)

// Direction is the sign of the plunger motion.
type Direction int

// DirectionOf maps a signed number onto a direction; zero counts as infuse.
func DirectionOf(sign float64) Direction {
	if sign < 0 {
		return Withdraw
	}
	return Infuse
}

func (d Direction) String() string {
	if d < 0 {
		return "WITHDRAW"
	}
	return "INFUSE"
}

// Param is a single KEY=VALUE assignment of a SET command.
type Param struct {
	Key   string
	Value any
}

func (p Param) String() string {
	return strings.ToUpper(p.Key) + "=" + strings.ToUpper(formatValue(p.Value))
}

// Status is a decoded status line. Fields the controller left out hold
// their defaults.
type Status struct {
	Flow      float64   `json:"flow"`
	Diameter  float64   `json:"diameter"`
	Direction Direction `json:"direction"`
	Running   bool      `json:"running"`
	Unit      string    `json:"unit"`
	Gearbox   string    `json:"gearbox"`
	Microstep string    `json:"microstep"`
	ThreadRod string    `json:"thread_rod"`
	Enabled   bool      `json:"enabled"`
}

// Defaults reported for fields missing from a status line.
const (
	DefaultFlow      = 1000.0
	DefaultDiameter  = 8.17
	DefaultDirection = "INFUSE"
	DefaultState     = "STOP"
	DefaultUnit      = "UL/HR"
	DefaultGearbox   = "1:1"
	DefaultMicrostep = "1/16"
	DefaultRod       = "1-START"
	DefaultEnable    = "OFF"
)
