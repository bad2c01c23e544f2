package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig     = fmt.Errorf("configuration not found")
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrUnsupportedScheme = fmt.Errorf("unsupported origin scheme")

	// Connection errors
	ErrNotConnected     = fmt.Errorf("not connected")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrDialFailed       = fmt.Errorf("failed to open connection")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Protocol errors
	ErrUnknownAction  = fmt.Errorf("unknown action")
	ErrUnknownCommand = fmt.Errorf("unknown command")
	ErrMalformedFrame = fmt.Errorf("malformed frame")
	ErrInvalidVolume  = fmt.Errorf("volume out of range")
	ErrInvalidAddress = fmt.Errorf("invalid track list address")

	// Mixer errors
	ErrUnknownTrackList = fmt.Errorf("no such track list")
	ErrDiscovery        = fmt.Errorf("service discovery failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
