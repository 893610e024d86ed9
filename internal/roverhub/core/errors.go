package core

import "errors"

var (
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRover is returned for a rover id outside the fleet.
	ErrInvalidRover = errors.New("invalid or missing rover_id")

	// ErrInvalidCommand is returned for a command outside the command set.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidTransition is returned when the mission lifecycle forbids an event.
	ErrInvalidTransition = errors.New("invalid mission transition")

	// ErrExternalService marks a failed call to a remote provider.
	ErrExternalService = errors.New("external service failure")

	// ErrAudioDecode marks audio that could not be decoded.
	ErrAudioDecode = errors.New("audio decode failed")
)
