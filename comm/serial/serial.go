package serial

import (
	"errors"
	"fmt"
	"go.bug.st/serial"
	"time"
)

var (
	ErrReadTimeout  = errors.New("serial read timeout")
	ErrWriteTimeout = errors.New("serial write timeout")
)

const (
	DefaultBaud         = 115200
	DefaultReadTimeout  = time.Second
	DefaultWriteTimeout = time.Second
)

// Options describes how a port is opened. DTR and RTS are the levels the
// modem lines are driven to right after the port opens.
type Options struct {
	Port         string
	BaudRate     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DTR          bool
	RTS          bool
}

func (o Options) withDefaults() Options {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaud
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	return o
}

// Mode is the 8N1 serial.Mode for the options, with the initial modem line
// levels set so the board sees them as soon as the port opens.
func (o Options) Mode() *serial.Mode {
	o = o.withDefaults()
	return &serial.Mode{
		BaudRate: o.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		InitialStatusBits: &serial.ModemOutputBits{
			DTR: o.DTR,
			RTS: o.RTS,
		},
	}
}

type Port struct {
	port         serial.Port
	name         string
	writeTimeout time.Duration
	// writing holds a token for as long as a driver write is running,
	// including one abandoned by a timed out Write.
	writing chan struct{}
}

func newPort(p serial.Port, name string, writeTimeout time.Duration) *Port {
	return &Port{
		port:         p,
		name:         name,
		writeTimeout: writeTimeout,
		writing:      make(chan struct{}, 1),
	}
}

func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}

func OpenPort(opts Options) (*Port, error) {
	opts = opts.withDefaults()
	p, err := serial.Open(opts.Port, opts.Mode())
	if err != nil {
		return nil, describe(opts.Port, err)
	}
	err = p.SetReadTimeout(opts.ReadTimeout)
	if err != nil {
		_ = p.Close()
		return nil, describe(opts.Port, err)
	}
	if err = p.SetDTR(opts.DTR); err != nil {
		_ = p.Close()
		return nil, describe(opts.Port, err)
	}
	if err = p.SetRTS(opts.RTS); err != nil {
		_ = p.Close()
		return nil, describe(opts.Port, err)
	}
	return newPort(p, opts.Port, opts.WriteTimeout), nil
}

// describe names the port in driver errors, keeping the serial.PortError
// reachable through errors.As.
func describe(name string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound:
			return fmt.Errorf("%s: port not found: %w", name, err)
		case serial.PortBusy:
			return fmt.Errorf("%s: port busy: %w", name, err)
		case serial.PermissionDenied:
			return fmt.Errorf("%s: permission denied: %w", name, err)
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (p *Port) Name() string {
	return p.name
}

// Read returns ErrReadTimeout when the driver's read timeout elapses with
// no data.
func (p *Port) Read(data []byte) (int, error) {
	n, err := p.port.Read(data)
	if err != nil {
		return n, err
	}
	if n == 0 && len(data) > 0 {
		return 0, ErrReadTimeout
	}
	return n, nil
}

// Write blocks for at most the configured write timeout. The driver has no
// write deadline, so a stuck write is abandoned; the port stays busy until
// it returns and later writes time out rather than run beside it.
func (p *Port) Write(data []byte) (int, error) {
	timer := time.NewTimer(p.writeTimeout)
	defer timer.Stop()
	select {
	case p.writing <- struct{}{}:
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := p.port.Write(data)
		<-p.writing
		done <- result{n, err}
	}()
	select {
	case r := <-done:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

func (p *Port) ResetInputBuffer() error {
	return p.port.ResetInputBuffer()
}

func (p *Port) SetDTR(dtr bool) error {
	return p.port.SetDTR(dtr)
}

func (p *Port) SetRTS(rts bool) error {
	return p.port.SetRTS(rts)
}

func (p *Port) Close() error {
	return p.port.Close()
}
