package pump

import "context"

// Set sends one SET command carrying every param and returns the reply.
func (c *Channel) Set(ctx context.Context, id ID, params ...Param) (string, error) {
	return c.Execute(ctx, BuildSetCommand(id, params...))
}

func (c *Channel) set(ctx context.Context, id ID, key string, value any) (string, error) {
	return c.Set(ctx, id, Param{Key: key, Value: value})
}

func (c *Channel) SetFlow(ctx context.Context, id ID, flow float64) (string, error) {
	return c.set(ctx, id, KeyFlow, flow)
}

func (c *Channel) SetDiameter(ctx context.Context, id ID, mm float64) (string, error) {
	return c.set(ctx, id, KeyDiameter, mm)
}

func (c *Channel) SetDirection(ctx context.Context, id ID, dir Direction) (string, error) {
	return c.set(ctx, id, KeyDirection, dir)
}

// SetState starts the pump when running is true and stops it otherwise.
func (c *Channel) SetState(ctx context.Context, id ID, running bool) (string, error) {
	return c.set(ctx, id, KeyState, runStop(running))
}

// SetUnit takes UL/MIN, UL/HR, ML/MIN or ML/HR.
func (c *Channel) SetUnit(ctx context.Context, id ID, unit string) (string, error) {
	return c.set(ctx, id, KeyUnit, unit)
}

// SetGearbox takes 1:1, 25:1 or 100:1.
func (c *Channel) SetGearbox(ctx context.Context, id ID, ratio string) (string, error) {
	return c.set(ctx, id, KeyGearbox, ratio)
}

// SetMicrostep takes 1/8 through 1/64.
func (c *Channel) SetMicrostep(ctx context.Context, id ID, step string) (string, error) {
	return c.set(ctx, id, KeyMicrostep, step)
}

// SetThreadRod takes 1-START or 4-START.
func (c *Channel) SetThreadRod(ctx context.Context, id ID, rod string) (string, error) {
	return c.set(ctx, id, KeyRod, rod)
}

func (c *Channel) SetEnable(ctx context.Context, id ID, on bool) (string, error) {
	return c.set(ctx, id, KeyEnable, onOff(on))
}

// StatusLine asks the pump for all of its parameters and returns the raw
// reply.
func (c *Channel) StatusLine(ctx context.Context, id ID) (string, error) {
	return c.Execute(ctx, BuildGetStatusCommand(id))
}

func (c *Channel) Status(ctx context.Context, id ID) (Status, error) {
	line, err := c.StatusLine(ctx, id)
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(line), nil
}

func getField[T FieldValue](ctx context.Context, c *Channel, id ID, key string, def T) (T, error) {
	line, err := c.StatusLine(ctx, id)
	if err != nil {
		return def, err
	}
	return ParseField(line, key, def), nil
}

func (c *Channel) Flow(ctx context.Context, id ID) (float64, error) {
	return getField(ctx, c, id, KeyFlow, DefaultFlow)
}

func (c *Channel) Diameter(ctx context.Context, id ID) (float64, error) {
	return getField(ctx, c, id, KeyDiameter, DefaultDiameter)
}

// Direction reports Infuse (+1) or Withdraw (-1).
func (c *Channel) Direction(ctx context.Context, id ID) (Direction, error) {
	line, err := c.StatusLine(ctx, id)
	if err != nil {
		return Infuse, err
	}
	return parseDirection(line), nil
}

func (c *Channel) Running(ctx context.Context, id ID) (bool, error) {
	line, err := c.StatusLine(ctx, id)
	if err != nil {
		return false, err
	}
	return parseRunning(line), nil
}

func (c *Channel) Unit(ctx context.Context, id ID) (string, error) {
	return getField(ctx, c, id, KeyUnit, DefaultUnit)
}

func (c *Channel) Gearbox(ctx context.Context, id ID) (string, error) {
	return getField(ctx, c, id, KeyGearbox, DefaultGearbox)
}

func (c *Channel) Microstep(ctx context.Context, id ID) (string, error) {
	return getField(ctx, c, id, KeyMicrostep, DefaultMicrostep)
}

func (c *Channel) ThreadRod(ctx context.Context, id ID) (string, error) {
	return getField(ctx, c, id, KeyRod, DefaultRod)
}

func (c *Channel) Enabled(ctx context.Context, id ID) (bool, error) {
	line, err := c.StatusLine(ctx, id)
	if err != nil {
		return false, err
	}
	return parseEnabled(line), nil
}
