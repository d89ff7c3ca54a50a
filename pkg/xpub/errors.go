package xpub

import "errors"

var (
	// ErrNotExtendedKey ...
	ErrNotExtendedKey = errors.New("not an xpub, ypub or zpub")
	// ErrTooShort ...
	ErrTooShort = errors.New("extended key string is too short")
	// ErrInvalidChecksum ...
	ErrInvalidChecksum = errors.New("invalid base58 checksum")
	// ErrInvalidLength ...
	ErrInvalidLength = errors.New("decoded extended key must be 78 bytes")
	// ErrInvalidExtendedKey ...
	ErrInvalidExtendedKey = errors.New("invalid extended public key")
	// ErrPrivateKey ...
	ErrPrivateKey = errors.New("extended private keys are not supported")
)
