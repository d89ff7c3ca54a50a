package keyexpr

import "errors"

var (
	// ErrNotASCII ...
	ErrNotASCII = errors.New("key expression must contain only ASCII characters")
	// ErrInvalidKeyOrigin ...
	ErrInvalidKeyOrigin = errors.New("invalid key origin format")
	// ErrChildrenIndicatorInKeyOrigin ...
	ErrChildrenIndicatorInKeyOrigin = errors.New("children indicator not allowed in key origin")
	// ErrTrailingSlashInKeyOrigin ...
	ErrTrailingSlashInKeyOrigin = errors.New("trailing slash in key origin")
	// ErrInvalidFingerprintLength ...
	ErrInvalidFingerprintLength = errors.New("fingerprint must be 8 characters")
	// ErrNonHexFingerprint ...
	ErrNonHexFingerprint = errors.New("non-hexadecimal fingerprint")
	// ErrInvalidHardenedIndicator ...
	ErrInvalidHardenedIndicator = errors.New("invalid hardened indicator, must be 'h' or \"'\"")
	// ErrNegativeIndices ...
	ErrNegativeIndices = errors.New("negative indices are not allowed")
	// ErrDerivationIndexOutOfRange ...
	ErrDerivationIndexOutOfRange = errors.New("derivation index out of range")
	// ErrInvalidDerivationIndex ...
	ErrInvalidDerivationIndex = errors.New("derivation index must be a number")
	// ErrMultipleKeyOrigins ...
	ErrMultipleKeyOrigins = errors.New("multiple key origins are not allowed")
	// ErrMissingKeyOriginStart ...
	ErrMissingKeyOriginStart = errors.New("missing key origin start bracket")
	// ErrKeyOriginWithNoPublicKey ...
	ErrKeyOriginWithNoPublicKey = errors.New("key origin with no public key")
)
