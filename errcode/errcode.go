package errcode

// Code is a stable, consumer-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Startup / configuration
	InvalidConfig Code = "invalid_config"

	// Routing
	UnknownDevice  Code = "unknown_device"
	UnknownChannel Code = "unknown_channel"

	// Read path
	ShortBuffer Code = "short_buffer"

	// Write path
	Oversize Code = "oversize"
	NoBuffer Code = "no_buffer"
	Transfer Code = "transfer"
	TxFailed Code = "tx_failed"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
