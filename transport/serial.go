package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// Serial port defaults. The robots' Bluetooth bridge modules run at
// 115200 8N1.
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 100 * time.Millisecond

	MinReadTimeout = time.Millisecond
)

// ErrDeviceEmpty is returned by OpenSerial when no device path is given.
var ErrDeviceEmpty = errors.New("transport: device path is empty")

type serialConfig struct {
	baud        int
	readTimeout time.Duration
}

// SerialOption is a functional option for OpenSerial.
type SerialOption interface {
	apply(*serialConfig) error
}

type serialOptFunc func(*serialConfig) error

func (f serialOptFunc) apply(cfg *serialConfig) error { return f(cfg) }

// WithBaudRate sets the line rate. Must be positive.
func WithBaudRate(baud int) SerialOption {
	return serialOptFunc(func(cfg *serialConfig) error {
		if baud <= 0 {
			return fmt.Errorf("transport: baud rate %d must be positive", baud)
		}
		cfg.baud = baud

		return nil
	})
}

// WithReadTimeout sets the poll interval for reads. A blocked Read
// returns (0, nil) after this long with no data, which lets a read loop
// observe shutdown between polls. Must be at least MinReadTimeout.
func WithReadTimeout(d time.Duration) SerialOption {
	return serialOptFunc(func(cfg *serialConfig) error {
		if d < MinReadTimeout {
			return fmt.Errorf("transport: read timeout %v below minimum %v", d, MinReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// serialChannel wraps a tarm serial port as a Channel.
type serialChannel struct {
	port   *serial.Port
	device string
}

var _ Channel = (*serialChannel)(nil)

// OpenSerial opens the serial device a robot is bridged to (e.g.
// /dev/rfcomm0 on Linux, /dev/tty.Orb-RGB on macOS) and returns it as
// a Channel.
func OpenSerial(device string, opts ...SerialOption) (Channel, error) {
	if device == "" {
		return nil, ErrDeviceEmpty
	}

	cfg := &serialConfig{
		baud:        DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        cfg.baud,
		ReadTimeout: cfg.readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}

	return &serialChannel{port: port, device: device}, nil
}

func (c *serialChannel) Read(p []byte) (int, error)  { return c.port.Read(p) }
func (c *serialChannel) Write(p []byte) (int, error) { return c.port.Write(p) }
func (c *serialChannel) Close() error                { return c.port.Close() }

// String returns the device path.
func (c *serialChannel) String() string { return c.device }
