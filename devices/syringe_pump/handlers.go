package syringepump

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/jt05610/syringe/control"
	"github.com/jt05610/syringe/pump"
	"sort"
	"strings"
)

type setFunc func(ctx context.Context, ch *pump.Channel, id pump.ID, raw json.RawMessage) (string, error)

type getFunc func(ctx context.Context, ch *pump.Channel, id pump.ID) (interface{}, error)

// field couples a named setter with its getter.
type field struct {
	set setFunc
	get getFunc
}

func setFloat(f func(*pump.Channel, context.Context, pump.ID, float64) (string, error)) setFunc {
	return func(ctx context.Context, ch *pump.Channel, id pump.ID, raw json.RawMessage) (string, error) {
		v, err := decodeFloat(raw)
		if err != nil {
			return "", err
		}
		return f(ch, ctx, id, v)
	}
}

func setString(f func(*pump.Channel, context.Context, pump.ID, string) (string, error)) setFunc {
	return func(ctx context.Context, ch *pump.Channel, id pump.ID, raw json.RawMessage) (string, error) {
		v, err := decodeString(raw)
		if err != nil {
			return "", err
		}
		return f(ch, ctx, id, v)
	}
}

func setSwitch(on, off string, f func(*pump.Channel, context.Context, pump.ID, bool) (string, error)) setFunc {
	return func(ctx context.Context, ch *pump.Channel, id pump.ID, raw json.RawMessage) (string, error) {
		v, err := decodeSwitch(raw, on, off)
		if err != nil {
			return "", err
		}
		return f(ch, ctx, id, v)
	}
}

func get[T any](f func(*pump.Channel, context.Context, pump.ID) (T, error)) getFunc {
	return func(ctx context.Context, ch *pump.Channel, id pump.ID) (interface{}, error) {
		return f(ch, ctx, id)
	}
}

var fields = map[string]field{
	"flow": {
		set: setFloat((*pump.Channel).SetFlow),
		get: get((*pump.Channel).Flow),
	},
	"diameter": {
		set: setFloat((*pump.Channel).SetDiameter),
		get: get((*pump.Channel).Diameter),
	},
	"direction": {
		set: func(ctx context.Context, ch *pump.Channel, id pump.ID, raw json.RawMessage) (string, error) {
			dir, err := decodeDirection(raw)
			if err != nil {
				return "", err
			}
			return ch.SetDirection(ctx, id, dir)
		},
		get: get((*pump.Channel).Direction),
	},
	"state": {
		set: setSwitch("RUN", "STOP", (*pump.Channel).SetState),
		get: get((*pump.Channel).Running),
	},
	"unit": {
		set: setString((*pump.Channel).SetUnit),
		get: get((*pump.Channel).Unit),
	},
	"gearbox": {
		set: setString((*pump.Channel).SetGearbox),
		get: get((*pump.Channel).Gearbox),
	},
	"microstep": {
		set: setString((*pump.Channel).SetMicrostep),
		get: get((*pump.Channel).Microstep),
	},
	"threadrod": {
		set: setString((*pump.Channel).SetThreadRod),
		get: get((*pump.Channel).ThreadRod),
	},
	"enable": {
		set: setSwitch("ON", "OFF", (*pump.Channel).SetEnable),
		get: get((*pump.Channel).Enabled),
	},
}

// Fields lists the named settings in sorted order.
func Fields() []string {
	ret := make([]string, 0, len(fields))
	for k := range fields {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func lookupField(name string) (field, error) {
	f, ok := fields[strings.ToLower(name)]
	if !ok {
		return field{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

func (d *SyringePump) SetField(ctx context.Context, pumpID string, name string, raw json.RawMessage) (*Response, error) {
	id, err := parseID(pumpID)
	if err != nil {
		return nil, err
	}
	f, err := lookupField(name)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, badRequest("missing value")
	}
	resp, err := f.set(ctx, d.ch, id, raw)
	if err != nil {
		return nil, err
	}
	return &Response{Pump: id.String(), Response: resp}, nil
}

func (d *SyringePump) GetField(ctx context.Context, pumpID string, name string) (*ValueResponse, error) {
	id, err := parseID(pumpID)
	if err != nil {
		return nil, err
	}
	f, err := lookupField(name)
	if err != nil {
		return nil, err
	}
	v, err := f.get(ctx, d.ch, id)
	if err != nil {
		return nil, err
	}
	return &ValueResponse{Pump: id.String(), Field: strings.ToLower(name), Value: v}, nil
}

// Set sends every parameter in one SET command, keys in sorted order.
func (d *SyringePump) Set(ctx context.Context, req *SetRequest) (*Response, error) {
	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]pump.Param, len(keys))
	for i, k := range keys {
		params[i] = pump.Param{Key: k, Value: req.Params[k]}
	}
	return d.SetParams(ctx, req.Pump, params...)
}

// SetParams sends params in one SET command in the order given.
func (d *SyringePump) SetParams(ctx context.Context, pumpID string, params ...pump.Param) (*Response, error) {
	id, err := parseID(pumpID)
	if err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, badRequest("no parameters")
	}
	for _, p := range params {
		if err := checkParam(p); err != nil {
			return nil, err
		}
	}
	resp, err := d.ch.Set(ctx, id, params...)
	if err != nil {
		return nil, err
	}
	return &Response{Pump: id.String(), Response: resp}, nil
}

func (d *SyringePump) Status(ctx context.Context, req *PumpRequest) (*StatusResponse, error) {
	id, err := parseID(req.Pump)
	if err != nil {
		return nil, err
	}
	line, err := d.ch.StatusLine(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{Pump: id.String(), Raw: line, Status: pump.ParseStatus(line)}, nil
}

// Handlers maps bus command names onto the pump: set, status, set_<field>
// and <field> for every named setting.
func (d *SyringePump) Handlers() control.Handlers {
	h := control.Handlers{
		"set": func(ctx context.Context, data json.RawMessage) (interface{}, error) {
			req := new(SetRequest)
			if err := decode(data, req); err != nil {
				return nil, err
			}
			return d.Set(ctx, req)
		},
		"status": func(ctx context.Context, data json.RawMessage) (interface{}, error) {
			req := new(PumpRequest)
			if err := decode(data, req); err != nil {
				return nil, err
			}
			return d.Status(ctx, req)
		},
	}
	for name := range fields {
		name := name
		h["set_"+name] = func(ctx context.Context, data json.RawMessage) (interface{}, error) {
			req := new(ValueRequest)
			if err := decode(data, req); err != nil {
				return nil, err
			}
			return d.SetField(ctx, req.Pump, name, req.Value)
		}
		h[name] = func(ctx context.Context, data json.RawMessage) (interface{}, error) {
			req := new(PumpRequest)
			if err := decode(data, req); err != nil {
				return nil, err
			}
			return d.GetField(ctx, req.Pump, name)
		}
	}
	return h
}
