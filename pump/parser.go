package pump

import (
	"strconv"
	"strings"
)

// FieldValue is the set of types a status field can be coerced to.
type FieldValue interface {
	float64 | int | bool | string
}

// Field returns the raw value of the first NAME=VALUE token in line.
func Field(line, name string) (string, bool) {
	prefix := name + "="
	for _, tok := range strings.Fields(line) {
		if strings.HasPrefix(tok, prefix) {
			return tok[len(prefix):], true
		}
	}
	return "", false
}

// ParseField extracts name from a status line and coerces it to the type of
// def. A missing field or a value that does not coerce yields def, so a
// partial or garbled status line never stops the caller. Booleans are true
// for ON and RUN.
func ParseField[T FieldValue](line, name string, def T) T {
	raw, ok := Field(line, name)
	if !ok {
		return def
	}
	var v any
	switch any(def).(type) {
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return def
		}
		v = f
	case int:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return def
		}
		v = i
	case bool:
		v = isOn(raw)
	case string:
		v = raw
	}
	return v.(T)
}

func isOn(s string) bool {
	return strings.EqualFold(s, "ON") || strings.EqualFold(s, "RUN")
}

func parseDirection(line string) Direction {
	if strings.EqualFold(ParseField(line, KeyDirection, DefaultDirection), "INFUSE") {
		return Infuse
	}
	return Withdraw
}

func parseRunning(line string) bool {
	return strings.EqualFold(ParseField(line, KeyState, DefaultState), "RUN")
}

func parseEnabled(line string) bool {
	return strings.EqualFold(ParseField(line, KeyEnable, DefaultEnable), "ON")
}

// ParseStatus decodes every known field of a status line.
func ParseStatus(line string) Status {
	return Status{
		Flow:      ParseField(line, KeyFlow, DefaultFlow),
		Diameter:  ParseField(line, KeyDiameter, DefaultDiameter),
		Direction: parseDirection(line),
		Running:   parseRunning(line),
		Unit:      ParseField(line, KeyUnit, DefaultUnit),
		Gearbox:   ParseField(line, KeyGearbox, DefaultGearbox),
		Microstep: ParseField(line, KeyMicrostep, DefaultMicrostep),
		ThreadRod: ParseField(line, KeyRod, DefaultRod),
		Enabled:   parseEnabled(line),
	}
}
