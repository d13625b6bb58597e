package env

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"io/fs"
	"os"
	"strconv"
	"time"
)

type Environment struct {
	SerialPort   string
	Baud         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	HTTPAddr     string
	URI          string
	Exchange     string
	DeviceID     string
}

const (
	defaultBaud     = 115200
	defaultTimeout  = time.Second
	defaultHTTPAddr = ":8080"
	defaultExchange = "devices"
	defaultDeviceID = "syringe_pump"
)

// Load reads the environment, after loading .env if there is one.
func Load(logger *zap.Logger) (*Environment, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err != nil {
		logger.Debug("No .env file, using process environment")
	}
	ret := &Environment{
		SerialPort: os.Getenv("SERIAL_PORT"),
		HTTPAddr:   lookup("HTTP_ADDR", defaultHTTPAddr),
		URI:        os.Getenv("RABBITMQ_URI"),
		Exchange:   lookup("AMQP_EXCHANGE", defaultExchange),
		DeviceID:   lookup("DEVICE_ID", defaultDeviceID),
	}
	if ret.Baud, err = strconv.Atoi(lookup("SERIAL_BAUD", strconv.Itoa(defaultBaud))); err != nil {
		return nil, fmt.Errorf("SERIAL_BAUD: %w", err)
	}
	if ret.ReadTimeout, err = duration("SERIAL_READ_TIMEOUT"); err != nil {
		return nil, err
	}
	if ret.WriteTimeout, err = duration("SERIAL_WRITE_TIMEOUT"); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadEnv is Load for mains: any problem, including an unset SERIAL_PORT,
// is fatal.
func LoadEnv(logger *zap.Logger) *Environment {
	environ, err := Load(logger)
	if err != nil {
		logger.Fatal("Failed to load environment", zap.Error(err))
	}
	if environ.SerialPort == "" {
		logger.Fatal("SERIAL_PORT not set")
	}
	return environ
}

// AMQPEnabled reports whether a broker was configured.
func (e *Environment) AMQPEnabled() bool {
	return e.URI != ""
}

func lookup(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	return v
}

func duration(key string) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
