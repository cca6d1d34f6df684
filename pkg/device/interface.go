package device

import (
	"errors"

	"github.com/itohio/gowhr/pkg/report"
)

// ErrAlreadyConnected is returned by Connect on a live device.
var ErrAlreadyConnected = errors.New("already connected")

// Device defines the interface for monitor devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Reports() <-chan report.Report
	Lines() <-chan string
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
