package descriptor

import "errors"

var (
	// ErrMalformedDescriptor ...
	ErrMalformedDescriptor = errors.New("malformed descriptor")
	// ErrMissingKeys ...
	ErrMissingKeys = errors.New(
		"descriptor did not contain both external and internal keys",
	)
	// ErrTooManyKeys ...
	ErrTooManyKeys = errors.New(
		"too many keys in descriptor, only 1 external and 1 internal key are supported",
	)
	// ErrMissingDescriptor ...
	ErrMissingDescriptor = errors.New("missing descriptor")
	// ErrMissingXpub ...
	ErrMissingXpub = errors.New("missing xpub")
	// ErrMissingDerivationPath ...
	ErrMissingDerivationPath = errors.New("missing derivation path")
	// ErrMissingScriptType ...
	ErrMissingScriptType = errors.New("missing script type")
	// ErrUnknownScriptType ...
	ErrUnknownScriptType = errors.New("unknown script type")
	// ErrMissingFingerprint ...
	ErrMissingFingerprint = errors.New("missing fingerprint (xfp)")
	// ErrMasterXpub ...
	ErrMasterXpub = errors.New(
		"xpub is a master key, use the child xpub for the derivation path",
	)
	// ErrMissingKeyExpressionFields ...
	ErrMissingKeyExpressionFields = errors.New(
		"creating descriptors from a key expression requires a master " +
			"fingerprint and an origin derivation path",
	)
	// ErrSinglePubkeyNotSupported ...
	ErrSinglePubkeyNotSupported = errors.New(
		"single pubkey is not supported, must be an extended key",
	)
	// ErrNotHardened ...
	ErrNotHardened = errors.New("path is not hardened")
	// ErrInvalidPath ...
	ErrInvalidPath = errors.New("invalid path")
)
