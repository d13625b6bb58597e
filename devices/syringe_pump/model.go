package syringepump

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/jt05610/syringe/pump"
	"go.uber.org/zap"
	"strings"
	"unicode"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnknownField = errors.New("unknown field")
)

// SyringePump exposes one pump.Channel to the bus and HTTP handlers. It is
// built once by the caller and passed around; there is no package state.
type SyringePump struct {
	ch     *pump.Channel
	logger *zap.Logger
}

func NewSyringePump(ch *pump.Channel, logger *zap.Logger) *SyringePump {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyringePump{ch: ch, logger: logger}
}

type PumpRequest struct {
	Pump string `json:"pump"`
}

type ValueRequest struct {
	Pump  string          `json:"pump"`
	Value json.RawMessage `json:"value"`
}

type SetRequest struct {
	Pump   string                 `json:"pump"`
	Params map[string]interface{} `json:"params"`
}

type Response struct {
	Pump     string `json:"pump"`
	Response string `json:"response"`
}

type ValueResponse struct {
	Pump  string      `json:"pump"`
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

type StatusResponse struct {
	Pump string `json:"pump"`
	Raw  string `json:"raw"`
	pump.Status
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

func decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return badRequest("empty body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("%v", err)
	}
	return nil
}

func parseID(s string) (pump.ID, error) {
	id, err := pump.ParseID(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return id, nil
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, badRequest("expected a number, got %s", raw)
	}
	return f, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", badRequest("expected a string, got %s", raw)
	}
	if err := checkWord(s); err != nil {
		return "", err
	}
	return s, nil
}

// checkWord refuses text that would not stay one KEY=VALUE token on the
// wire: empty, or holding whitespace or control characters.
func checkWord(s string) error {
	if s == "" {
		return badRequest("empty value")
	}
	if i := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}); i >= 0 {
		return badRequest("%q contains whitespace or control characters", s)
	}
	return nil
}

// checkParam accepts a key word with a string, number or bool value.
func checkParam(p pump.Param) error {
	if err := checkWord(p.Key); err != nil {
		return err
	}
	if strings.ContainsRune(p.Key, '=') || strings.EqualFold(p.Key, "PUMP") {
		return badRequest("invalid key %q", p.Key)
	}
	switch v := p.Value.(type) {
	case string:
		return checkWord(v)
	case float64, int, bool:
		return nil
	}
	return badRequest("%s: expected a string, number or bool, got %T", p.Key, p.Value)
}

// decodeSwitch accepts a JSON bool or one of the two wire words.
func decodeSwitch(raw json.RawMessage, on string, off string) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	s, err := decodeString(raw)
	if err != nil {
		return false, badRequest("expected true, false, %s or %s, got %s", on, off, raw)
	}
	switch strings.ToUpper(s) {
	case on:
		return true, nil
	case off:
		return false, nil
	}
	return false, badRequest("expected %s or %s, got %q", on, off, s)
}

// decodeDirection accepts a signed number or INFUSE/WITHDRAW.
func decodeDirection(raw json.RawMessage) (pump.Direction, error) {
	if f, err := decodeFloat(raw); err == nil {
		return pump.DirectionOf(f), nil
	}
	s, err := decodeString(raw)
	if err != nil {
		return pump.Infuse, badRequest("expected a signed number, INFUSE or WITHDRAW, got %s", raw)
	}
	switch strings.ToUpper(s) {
	case pump.Infuse.String():
		return pump.Infuse, nil
	case pump.Withdraw.String():
		return pump.Withdraw, nil
	}
	return pump.Infuse, badRequest("expected INFUSE or WITHDRAW, got %q", s)
}
