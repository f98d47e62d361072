package core

import "errors"

var (
	// ErrHalted is returned by Monitor.Run after a fatal setup error.
	ErrHalted = errors.New("monitor halted")

	// ErrNotInstalled is returned by drivers that are read before Install.
	ErrNotInstalled = errors.New("bus driver not installed")

	// ErrTimeout is returned by drivers when a bounded read expires with no data.
	ErrTimeout = errors.New("bus read timed out")

	// ErrInvalidConfig is wrapped by every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid bus configuration")
)

// Driver status codes. Values follow the ESP-IDF esp_err_t numbering so
// reports look the same whichever board produced them.
const (
	StatusOK           int32 = 0
	StatusFail         int32 = -1
	StatusNoMem        int32 = 0x101
	StatusInvalidArg   int32 = 0x102
	StatusInvalidState int32 = 0x103
	StatusNotFound     int32 = 0x105
	StatusTimeout      int32 = 0x107
)

// StatusError is a driver failure carrying a numeric status code.
type StatusError struct {
	Op   string // "install", "set_pin", "read"
	Code int32
	Err  error
}

func (e *StatusError) Error() string {
	msg := e.Op + ": status " + itoa(int(e.Code))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError builds a StatusError for op.
func NewStatusError(op string, code int32, err error) *StatusError {
	return &StatusError{Op: op, Code: code, Err: err}
}

// StatusCode extracts the driver status from err.
// Errors that do not carry a status map to StatusInvalidArg for
// configuration problems and StatusFail for everything else.
func StatusCode(err error) int32 {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, ErrInvalidConfig) {
		return StatusInvalidArg
	}
	if errors.Is(err, ErrTimeout) {
		return StatusTimeout
	}
	return StatusFail
}

type configError struct {
	reason string
}

func (e *configError) Error() string {
	return ErrInvalidConfig.Error() + ": " + e.reason
}

func (e *configError) Unwrap() error {
	return ErrInvalidConfig
}

func invalidConfig(reason string) error {
	return &configError{reason: reason}
}
