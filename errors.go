package pubport

import "errors"

var (
	// ErrInvalidJSON ...
	ErrInvalidJSON = errors.New("invalid json")
	// ErrNoDescriptor ...
	ErrNoDescriptor = errors.New("invalid json, no xpubs or descriptor")
)
