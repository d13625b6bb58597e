package pump

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/jt05610/syringe/comm/serial"
	"go.uber.org/zap"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var (
	// ErrConnection is returned when the serial transport could not be
	// opened or prepared. The channel is unusable.
	ErrConnection = errors.New("pump: connection failed")
	// ErrTransportTimeout is returned when a write or read of a transaction
	// ran past its timeout. Nothing is retried.
	ErrTransportTimeout = errors.New("pump: transport timeout")
)

const DefaultSettle = time.Second

// Transport is the byte stream to the controller. ResetInputBuffer drops
// anything received but not yet read.
type Transport interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

type Options struct {
	Port         string
	BaudRate     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Settle is how long the controller gets to boot after the modem lines
	// change before its banner is discarded.
	Settle time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaudRate <= 0 {
		o.BaudRate = serial.DefaultBaud
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = serial.DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = serial.DefaultWriteTimeout
	}
	if o.Settle <= 0 {
		o.Settle = DefaultSettle
	}
	return o
}

// Channel serializes command/response exchanges with the controller. It is
// safe for concurrent use; exchanges run one at a time.
type Channel struct {
	mu          sync.Mutex
	transport   Transport
	logger      *zap.Logger
	readTimeout time.Duration
	pumps       []ID
}

// Open opens the serial port with DTR and RTS asserted, which takes the
// controller out of reset, and discards its boot banner.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Channel, error) {
	opts = opts.withDefaults()
	port, err := serial.OpenPort(serial.Options{
		Port:         opts.Port,
		BaudRate:     opts.BaudRate,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		DTR:          true,
		RTS:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	c, err := New(ctx, port, opts, logger)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return c, nil
}

// New prepares a channel over an open transport: flush, wait for the
// controller to settle, flush again.
func New(ctx context.Context, t Transport, opts Options, logger *zap.Logger) (*Channel, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Channel{
		transport:   t,
		logger:      logger,
		readTimeout: opts.ReadTimeout,
		pumps:       IDs,
	}
	if err := t.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("%w: flush input: %w", ErrConnection, err)
	}
	timer := time.NewTimer(opts.Settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrConnection, ctx.Err())
	case <-timer.C:
	}
	if err := t.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("%w: discard banner: %w", ErrConnection, err)
	}
	logger.Info("Pump channel ready", zap.String("port", opts.Port))
	return c, nil
}

// Pumps lists the pumps this channel addresses.
func (c *Channel) Pumps() []ID {
	return c.pumps
}

// Close releases the transport. Call it once.
func (c *Channel) Close() error {
	return c.transport.Close()
}

// Execute sends cmd and returns the controller's one-line answer with
// surrounding whitespace removed. The context is only consulted before the
// command is written; the transport timeouts bound the exchange itself.
func (c *Channel) Execute(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.logger.Debug("Sending message", zap.String("msg", cmd))
	if _, err := c.transport.Write([]byte(cmd + "\n")); err != nil {
		c.logger.Error("Failed to send message", zap.String("msg", cmd), zap.Error(err))
		return "", transportError("write", err)
	}
	line, err := c.readLine()
	if err != nil {
		c.logger.Error("Failed to read response", zap.String("msg", cmd), zap.Error(err))
		return "", transportError("read", err)
	}
	c.logger.Debug("Received message", zap.String("msg", line))
	return line, nil
}

func (c *Channel) readLine() (string, error) {
	deadline := time.Now().Add(c.readTimeout)
	buf := new(bytes.Buffer)
	b := make([]byte, 1)
	for {
		n, err := c.transport.Read(b)
		if n == 1 {
			if b[0] == '\n' {
				return decode(buf.Bytes()), nil
			}
			buf.WriteByte(b[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && buf.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if n == 0 || time.Now().After(deadline) {
			return "", serial.ErrReadTimeout
		}
	}
}

// decode drops bytes that are not valid UTF-8 and trims line-ending noise.
func decode(bb []byte) string {
	if !utf8.Valid(bb) {
		bb = bytes.ToValidUTF8(bb, nil)
	}
	return strings.TrimSpace(string(bb))
}

type timeout interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	if errors.Is(err, serial.ErrReadTimeout) || errors.Is(err, serial.ErrWriteTimeout) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}

func transportError(op string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrTransportTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
