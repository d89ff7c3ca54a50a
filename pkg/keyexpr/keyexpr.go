// Package keyexpr parses BIP-380 style key expressions, strings of the form
// [fingerprint/origin-path]key/trailing-path, without going through a full
// descriptor grammar. Only expressions carrying an extended public key are
// supported, bare public keys and WIF private keys are rejected.
package keyexpr

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/tdex-network/pubport/pkg/xpub"
)

// KeyExpression is the structured form of a parsed key expression.
type KeyExpression struct {
	// Key is the extended public key, canonicalized to xpub form.
	Key *xpub.Xpub
	// MasterFingerprint is the origin fingerprint as 8 lowercase hex chars,
	// empty when the expression has no key origin.
	MasterFingerprint string
	// OriginPath is the hardened derivation path inside the key origin, nil
	// when absent.
	OriginPath DerivationPath
	// TrailingPath is the derivation appended after the key, nil when absent.
	// Wildcard steps are not part of it.
	TrailingPath DerivationPath
	// Wildcard reports whether the trailing path ends with a ranged step.
	Wildcard Wildcard
}

// HasOrigin reports whether the expression carries both a master fingerprint
// and an origin derivation path.
func (k *KeyExpression) HasOrigin() bool {
	return k.MasterFingerprint != "" && k.OriginPath != nil
}

// Parse scans a key expression left to right with no backtracking. Every
// validation failure is reported with a specific sentinel error, no partial
// result is ever returned.
func Parse(input string) (*KeyExpression, error) {
	for i := 0; i < len(input); i++ {
		if input[i] > unicode.MaxASCII {
			return nil, ErrNotASCII
		}
	}

	p := &parser{rest: input}
	fingerprint, originPath, err := p.parseKeyOrigin()
	if err != nil {
		return nil, err
	}

	if strings.ContainsRune(p.rest, '[') && strings.ContainsRune(p.rest, ']') {
		return nil, fmt.Errorf("%w: %s", ErrMultipleKeyOrigins, p.rest)
	}

	if fingerprint != "" && p.rest == "" {
		return nil, fmt.Errorf("%w: %s", ErrKeyOriginWithNoPublicKey, input)
	}

	keyText := p.rest
	var trailingPath DerivationPath
	wildcard := WildcardNone
	if slash := strings.IndexByte(p.rest, '/'); slash >= 0 {
		keyText = p.rest[:slash]
		// the trailing path is validated before the key itself so a bad
		// index is reported as such rather than as a key decoding failure
		trailingPath, wildcard, err = parseTrailingPath(p.rest[slash+1:])
		if err != nil {
			return nil, err
		}
	}

	key, err := xpub.NewFromString(keyText)
	if err != nil {
		return nil, err
	}

	return &KeyExpression{
		Key:               key,
		MasterFingerprint: fingerprint,
		OriginPath:        originPath,
		TrailingPath:      trailingPath,
		Wildcard:          wildcard,
	}, nil
}

type parser struct {
	rest string
}

// parseKeyOrigin consumes an optional leading [fingerprint/path] group and
// returns its parts. The cursor is left on the first char after the closing
// bracket.
func (p *parser) parseKeyOrigin() (string, DerivationPath, error) {
	if !strings.HasPrefix(p.rest, "[") {
		if strings.ContainsRune(p.rest, ']') {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingKeyOriginStart, p.rest)
		}
		return "", nil, nil
	}

	closing := strings.IndexByte(p.rest, ']')
	if closing < 0 {
		return "", nil, ErrInvalidKeyOrigin
	}
	content := p.rest[1:closing]
	p.rest = p.rest[closing+1:]

	fingerprint := content
	pathText := ""
	hasPath := false
	if slash := strings.IndexByte(content, '/'); slash >= 0 {
		fingerprint = content[:slash]
		pathText = content[slash+1:]
		hasPath = true
	}

	if len(fingerprint) != 8 {
		return "", nil, fmt.Errorf(
			"%w, was %d", ErrInvalidFingerprintLength, len(fingerprint),
		)
	}
	for i := 0; i < len(fingerprint); i++ {
		if !isHexDigit(fingerprint[i]) {
			return "", nil, fmt.Errorf("%w: %s", ErrNonHexFingerprint, fingerprint)
		}
	}
	fingerprint = strings.ToLower(fingerprint)

	if !hasPath {
		return fingerprint, nil, nil
	}

	path, err := ParsePath(pathText)
	if err != nil {
		return "", nil, err
	}
	return fingerprint, path, nil
}

// ParsePath parses a wildcard-free derivation path in descriptor notation,
// segments separated by "/" and hardened steps marked with "h" or "'". It
// enforces the key origin rules: no trailing slash, no wildcard, no negative
// index.
func ParsePath(pathText string) (DerivationPath, error) {
	if strings.HasSuffix(pathText, "/") {
		return nil, ErrTrailingSlashInKeyOrigin
	}
	if strings.ContainsRune(pathText, '*') {
		return nil, fmt.Errorf("%w: %s", ErrChildrenIndicatorInKeyOrigin, pathText)
	}
	if strings.ContainsRune(pathText, '-') {
		return nil, ErrNegativeIndices
	}

	segments := strings.Split(pathText, "/")
	path := make(DerivationPath, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w, found empty segment", ErrInvalidDerivationIndex)
		}
		// a segment either ends with a hardened marker or is purely numeric
		if last := segment[len(segment)-1]; !isDigit(last) && last != 'h' && last != '\'' {
			return nil, fmt.Errorf("%w, found %c", ErrInvalidHardenedIndicator, last)
		}
		index, err := ParseIndex(segment)
		if err != nil {
			return nil, err
		}
		path = append(path, index)
	}
	return path, nil
}

func parseTrailingPath(pathText string) (DerivationPath, Wildcard, error) {
	if strings.ContainsRune(pathText, '-') {
		return nil, WildcardNone, ErrNegativeIndices
	}

	segments := strings.Split(pathText, "/")
	path := make(DerivationPath, 0, len(segments))
	wildcard := WildcardNone
	for _, segment := range segments {
		switch segment {
		case "*":
			wildcard = WildcardUnhardened
			continue
		case "*h", "*'":
			wildcard = WildcardHardened
			continue
		}
		index, err := ParseIndex(segment)
		if err != nil {
			return nil, WildcardNone, err
		}
		path = append(path, index)
	}
	return path, wildcard, nil
}

// ParseIndex parses a single path segment with an optional hardened marker
// into a BIP-32 child index.
func ParseIndex(segment string) (uint32, error) {
	hardened := false
	if strings.HasSuffix(segment, "h") || strings.HasSuffix(segment, "'") {
		hardened = true
		segment = segment[:len(segment)-1]
	}
	if segment == "" {
		return 0, fmt.Errorf("%w, found empty segment", ErrInvalidDerivationIndex)
	}
	var index uint64
	for i := 0; i < len(segment); i++ {
		if !isDigit(segment[i]) {
			return 0, fmt.Errorf("%w, found %s", ErrInvalidDerivationIndex, segment)
		}
		index = index*10 + uint64(segment[i]-'0')
		if index >= hdkeychain.HardenedKeyStart {
			return 0, fmt.Errorf("%w: %s", ErrDerivationIndexOutOfRange, segment)
		}
	}
	if hardened {
		return uint32(index) + hdkeychain.HardenedKeyStart, nil
	}
	return uint32(index), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
